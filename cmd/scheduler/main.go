package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tender_portal_backend/internal/events"
	"tender_portal_backend/internal/scheduler"
	"tender_portal_backend/internal/statuscatalog"
	workflowrepo "tender_portal_backend/internal/workflow/repository"
	workflowservice "tender_portal_backend/internal/workflow/service"
	"tender_portal_backend/platform/config"
	"tender_portal_backend/platform/db"
	"tender_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	catalog, err := statuscatalog.Load(ctx, statuscatalog.NewRepository(pool))
	if err != nil {
		log.Error("failed to load status catalog", "error", err)
		panic("failed to load status catalog: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)

	// The worker only runs sweeps; it never enqueues new advance tasks.
	engine := workflowservice.New(workflowrepo.New(pool), catalog, eventBus, nil, log)

	// Ticker sweep is the catch-all for lost or late advance tasks.
	sweeper := scheduler.NewRASweeper(engine, log, cfg.GetRASweepInterval())
	go sweeper.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, engine, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)

	eventBus.Wait()
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}
