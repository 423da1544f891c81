// Package scheduler runs named jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work. Errors are logged, never fatal.
type Job func(ctx context.Context) error

// Scheduler manages all cron tasks of a process.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context

	mu   sync.Mutex
	jobs map[string]func()
}

// New creates a scheduler whose specs carry a leading seconds field.
// Overlapping runs of the same job are skipped.
func New(ctx context.Context) *Scheduler {
	logger := slogLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:  ctx,
		jobs: make(map[string]func()),
	}
}

// Register adds job under name on the given cron spec.
func (s *Scheduler) Register(name, spec string, job Job) error {
	run := func() {
		start := time.Now()
		slog.InfoContext(s.ctx, "scheduled job started", "job", name)
		if err := job(s.ctx); err != nil {
			slog.ErrorContext(s.ctx, "scheduled job failed", "job", name, "duration", time.Since(start), "error", err)
			return
		}
		slog.InfoContext(s.ctx, "scheduled job finished", "job", name, "duration", time.Since(start))
	}
	if _, err := s.cron.AddFunc(spec, run); err != nil {
		return fmt.Errorf("register %s task: %w", name, err)
	}

	s.mu.Lock()
	s.jobs[name] = run
	s.mu.Unlock()
	return nil
}

// RunNow executes a registered job synchronously (RUN_ON_START, manual trigger).
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	run, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	run()
	return nil
}

// Start starts the cron scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		slog.Info("scheduler stopped")
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out with jobs still running")
	}
}

// slogLogger adapts slog to cron.Logger.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
