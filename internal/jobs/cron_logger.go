package jobs

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronLogger sends the scheduler's own messages, including recovered job
// panics, to slog. Scheduling chatter is logged at debug level.
type cronLogger struct {
	logger *slog.Logger
}

func newCronLogger(logger *slog.Logger) cron.Logger {
	return cronLogger{logger: logger.With(slog.String("component", "cron"))}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := make([]any, 0, len(keysAndValues)+1)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	l.logger.Error(msg, append(args, keysAndValues...)...)
}
