// Package main is the entry point for the farmops background worker.
// It runs scheduled reconciliation sweeps and idempotency key cleanup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmops/internal/app"
	"farmops/internal/config"
	"farmops/internal/scheduler"
	"farmops/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "path to .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting farmops worker")

	rt, err := app.Open(ctx, cfg, app.RuntimeOptions{ListenCatalog: true})
	if err != nil {
		log.Fatalw("failed to initialize storage", "error", err)
	}
	defer rt.Close()

	loc, err := time.LoadLocation(cfg.Worker.Timezone)
	if err != nil {
		log.Fatalw("invalid timezone", "timezone", cfg.Worker.Timezone, "error", err)
	}

	sched := scheduler.New(scheduler.Config{
		ReconcileSpec: cfg.Worker.ReconcileCron,
		CleanupSpec:   cfg.Worker.IdempotencyCleanupCron,
		Location:      loc,
	}, rt.Services.Reconciliation, rt.Services.Storage.Idempotency, log)

	if err := sched.Start(); err != nil {
		log.Fatalw("failed to start scheduler", "error", err)
	}

	if rt.Pool != nil {
		go logPoolStats(ctx, rt)
	}

	<-ctx.Done()
	log.Info("shutting down worker...")
	sched.Stop()
	log.Info("worker stopped")
}

func logPoolStats(ctx context.Context, rt *app.Runtime) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.Pool.LogStats(ctx)
		}
	}
}
