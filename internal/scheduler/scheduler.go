// Package scheduler runs the periodic maintenance jobs of the worker:
// reconciliation sweeps and idempotency key cleanup.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appctx "farmops/internal/core/context"
	"farmops/internal/core/idempotency"
	"farmops/internal/domain/reconciliation"
	"farmops/pkg/logger"
)

// Reconciler runs one reconciliation sweep.
type Reconciler interface {
	Run(ctx context.Context) (*reconciliation.Report, error)
}

// Config holds job schedules in standard five-field cron syntax.
type Config struct {
	ReconcileSpec string
	CleanupSpec   string
	Location      *time.Location
	// JobTimeout bounds a single run.
	JobTimeout time.Duration
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	keys       idempotency.Store
	cfg        Config
	log        *logger.Logger
}

// New creates a scheduler. Overlapping runs of the same job are skipped.
func New(cfg Config, reconciler Reconciler, keys idempotency.Store, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	log = log.WithComponent("scheduler")

	cl := cronLogger{log}
	c := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &Scheduler{
		cron:       c,
		reconciler: reconciler,
		keys:       keys,
		cfg:        cfg,
		log:        log,
	}
}

// Register adds the jobs without starting the scheduler.
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(s.cfg.ReconcileSpec, s.job("reconcile", s.Reconcile)); err != nil {
		return fmt.Errorf("schedule reconcile %q: %w", s.cfg.ReconcileSpec, err)
	}
	if s.keys != nil {
		if _, err := s.cron.AddFunc(s.cfg.CleanupSpec, s.job("idempotency-cleanup", s.CleanupKeys)); err != nil {
			return fmt.Errorf("schedule idempotency cleanup %q: %w", s.cfg.CleanupSpec, err)
		}
	}
	return nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	if err := s.Register(); err != nil {
		return err
	}
	s.log.Infow("starting scheduler",
		"reconcile", s.cfg.ReconcileSpec,
		"idempotency_cleanup", s.cfg.CleanupSpec,
		"location", s.cfg.Location.String(),
	)
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.log.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Entries returns the registered job count.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Reconcile runs one sweep.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	report, err := s.reconciler.Run(ctx)
	if err != nil {
		return err
	}
	if !report.Clean() {
		s.log.Warnw("reconciliation found drift",
			"status_corrections", len(report.StatusCorrections),
			"violations", len(report.Violations),
		)
	}
	return nil
}

// CleanupKeys removes expired idempotency keys.
func (s *Scheduler) CleanupKeys(ctx context.Context) error {
	removed, err := s.keys.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.Infow("cleaned up idempotency keys", "count", removed)
	}
	return nil
}

func (s *Scheduler) job(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
		defer cancel()
		ctx = appctx.WithTrace(ctx, appctx.NewTraceContext())
		ctx = logger.WithLogger(ctx, s.log.With("job", name))

		start := time.Now()
		if err := fn(ctx); err != nil {
			s.log.Errorw("job failed", "job", name, "error", err)
			return
		}
		s.log.Debugw("job finished", "job", name, "duration", time.Since(start))
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
