package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/sqlite"
	"github.com/robfig/cron/v3"
)

// cronLogger adapts slog to the logger interface of the cron scheduler. The cron goroutine outlives Stop, so the
// logger drops everything once closed.
type cronLogger struct {
	ctx    context.Context //nolint:containedctx // cron's logger interface has no context parameter.
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.log(slog.LevelDebug, msg, keysAndValues)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, append(keysAndValues, errors.SlogError(err)))
}

func (l *cronLogger) log(level slog.Level, msg string, args []any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	l.logger.Log(l.ctx, level, "cron: "+msg, args...)
}

// close waits for in-flight log calls and silences the logger.
func (l *cronLogger) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// scheduler runs the background jobs next to the HTTP server.
type scheduler struct {
	cron *cron.Cron
	log  *cronLogger
}

// run starts the jobs and blocks until ctx is done and the running jobs have returned. Nothing is logged by the
// scheduler after run returns.
func (s *scheduler) run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.close()
}

// newScheduler registers the background jobs: delivering pending workout completions to the planning API and
// running the SQLite optimizer.
func (app *application) newScheduler(
	ctx context.Context,
	db *sqlite.Database,
	syncSchedule, optimizeSchedule string,
) (*scheduler, error) {
	l := &cronLogger{ctx: ctx, logger: app.logger}
	c := cron.New(cron.WithLogger(l), cron.WithChain(cron.SkipIfStillRunning(l), cron.Recover(l)))

	if _, err := c.AddFunc(syncSchedule, func() {
		synced, err := app.completions.RetryPending(ctx)
		if err != nil {
			app.logger.LogAttrs(ctx, slog.LevelError, "retry pending completions", errors.SlogError(err))
			return
		}
		if synced > 0 {
			app.logger.LogAttrs(ctx, slog.LevelInfo, "synced pending completions", slog.Int("count", synced))
		}
	}); err != nil {
		return nil, fmt.Errorf("add sync job %q: %w", syncSchedule, err)
	}

	if _, err := c.AddFunc(optimizeSchedule, func() {
		if err := db.Optimize(ctx); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelError, "optimize database", errors.SlogError(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("add optimize job %q: %w", optimizeSchedule, err)
	}

	return &scheduler{cron: c, log: l}, nil
}
