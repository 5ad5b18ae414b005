package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
)

// connectBackoff is the delay before the first connection retry
const connectBackoff = 500 * time.Millisecond

// SurrealDB implements Database over a SurrealDB websocket connection
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates a new SurrealDB instance; call Connect before use
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{
		config: cfg,
	}
}

// Connect opens the connection, signs in and selects the namespace and
// database. Failed attempts are retried ConnectRetries times so the API can
// start alongside a database that is still booting.
func (s *SurrealDB) Connect(ctx context.Context) error {
	delay := connectBackoff
	var err error

	for attempt := 0; ; attempt++ {
		if err = s.connectOnce(ctx); err == nil {
			return nil
		}
		if attempt >= s.config.ConnectRetries {
			return err
		}

		slog.Warn("database connection failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", delay),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrConnection, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (s *SurrealDB) connectOnce(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if _, err := db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	}); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if s.config.Namespace != "" {
		if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
			_ = db.Close(ctx)
			return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
		}
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SurrealDB) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close(context.Background())
	s.db = nil
	return err
}

// Ping checks the database connection
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query executes a query and returns one {status, result} entry per
// statement. When any statement fails, the messages of every failed
// statement are classified together so a THROW inside a transaction wins
// over the generic "transaction failed" entries.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	start := time.Now()
	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	s.logSlow(ctx, query, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", classify(err.Error()), err)
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	var failures []string
	for _, r := range *results {
		if r.Status != "OK" {
			msg := "statement failed"
			if r.Error != nil {
				msg = r.Error.Message
			}
			failures = append(failures, msg)
			continue
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}

	if len(failures) > 0 {
		joined := strings.Join(failures, "; ")
		return nil, fmt.Errorf("%w: %s", classify(joined), joined)
	}
	return output, nil
}

func (s *SurrealDB) logSlow(ctx context.Context, query string, took time.Duration) {
	if s.config.SlowQuery <= 0 || took < s.config.SlowQuery {
		return
	}
	slog.WarnContext(ctx, "slow query",
		slog.Duration("took", took),
		slog.String("query", summarizeQuery(query)))
}

// summarizeQuery collapses whitespace and truncates a query for logging
func summarizeQuery(query string) string {
	const maxLen = 200
	q := strings.Join(strings.Fields(query), " ")
	if len(q) > maxLen {
		q = q[:maxLen] + "..."
	}
	return q
}

// QueryOne executes a query and returns the first record of the first statement
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return FirstRecord(results)
}

// Execute runs a query without returning results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// FirstRecord unwraps the {status, result} envelope of the first statement and
// returns its first record, or the scalar result as-is.
func FirstRecord(results []interface{}) (interface{}, error) {
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	resp, ok := results[0].(map[string]interface{})
	if !ok || resp["status"] != "OK" {
		return results[0], nil
	}

	switch result := resp["result"].(type) {
	case nil:
		return nil, ErrNotFound
	case []interface{}:
		if len(result) == 0 {
			return nil, ErrNotFound
		}
		return result[0], nil
	default:
		return result, nil
	}
}
