package database

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique index violation (e.g., duplicate email).
	ErrDuplicate = errors.New("duplicate record")

	// ErrConflict indicates a guarded write found the record in an unexpected state.
	ErrConflict = errors.New("write conflict")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")
)

// Database defines the interface for database operations
type Database interface {
	// Connection management
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns one {status, result} entry per statement
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns the first record of the first statement
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string

	// ConnectRetries is how many extra connection attempts are made, with
	// doubling backoff, before Connect gives up. Zero means one attempt.
	ConnectRetries int
	// SlowQuery logs queries that take longer at warn level. Zero disables it.
	SlowQuery time.Duration
}

// conflictPrefix marks errors raised by Guard statements.
const conflictPrefix = "conflict: "

// classify maps a SurrealDB error message onto the package sentinels.
// Unique index violations read "Database index `x` already contains ...".
func classify(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, conflictPrefix):
		return ErrConflict
	case strings.Contains(lower, "already contains"),
		strings.Contains(lower, "already exists"),
		strings.Contains(lower, "duplicate"):
		return ErrDuplicate
	default:
		return ErrQuery
	}
}

// ConflictReason returns the reason given to the Guard that aborted a
// transaction, or "" when err is not a guard conflict.
func ConflictReason(err error) string {
	if err == nil || !errors.Is(err, ErrConflict) {
		return ""
	}
	msg := err.Error()
	idx := strings.LastIndex(msg, conflictPrefix)
	if idx < 0 {
		return ""
	}
	reason := msg[idx+len(conflictPrefix):]
	if end := strings.IndexAny(reason, "\";"); end >= 0 {
		reason = reason[:end]
	}
	return strings.TrimSpace(reason)
}
