package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// TokenStore is the refresh token housekeeping surface
type TokenStore interface {
	DeleteExpiredTokens(ctx context.Context) (int, error)
	CleanupRevokedTokens(ctx context.Context, olderThan time.Duration) (int, error)
}

const (
	tokenCleanupJob = "token_cleanup"

	// Revoked tokens are kept for a week so reuse attempts stay traceable
	revokedRetention = 7 * 24 * time.Hour
)

// TokenCleanupJob removes expired and long-revoked refresh tokens on a cron
// schedule.
type TokenCleanupJob struct {
	tokens   TokenStore
	recorder RunRecorder
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
}

// NewTokenCleanupJob creates a cleanup job for a standard five-field cron
// schedule such as "0 3 * * *". recorder may be nil.
func NewTokenCleanupJob(tokens TokenStore, recorder RunRecorder, schedule string) (*TokenCleanupJob, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid token cleanup schedule %q: %w", schedule, err)
	}
	return &TokenCleanupJob{
		tokens:   tokens,
		recorder: recorder,
		schedule: schedule,
	}, nil
}

// Start registers the job with a new cron scheduler and starts it
func (j *TokenCleanupJob) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron != nil {
		return nil
	}

	logger := newCronLogger(slog.Default())
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger)))
	if _, err := c.AddFunc(j.schedule, j.tick); err != nil {
		return fmt.Errorf("scheduling token cleanup: %w", err)
	}
	c.Start()
	j.cron = c

	slog.Info("token cleanup job started", slog.String("schedule", j.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running cleanup to finish
func (j *TokenCleanupJob) Stop() {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	slog.Info("token cleanup job stopped")
}

func (j *TokenCleanupJob) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		slog.Error("cleaning up refresh tokens", slog.String("error", err.Error()))
	}
}

// RunOnce deletes expired tokens and old revoked tokens, returning the total
// removed. Both passes run even when the first fails.
func (j *TokenCleanupJob) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()

	expired, errExpired := j.tokens.DeleteExpiredTokens(ctx)
	revoked, errRevoked := j.tokens.CleanupRevokedTokens(ctx, revokedRetention)
	err := errors.Join(errExpired, errRevoked)

	if j.recorder != nil {
		j.recorder.JobRun(tokenCleanupJob, time.Since(start).Seconds(), err)
	}

	total := expired + revoked
	if total > 0 {
		slog.Info("removed refresh tokens",
			slog.Int("expired", expired),
			slog.Int("revoked", revoked))
	}
	return total, err
}
