package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dashboardhandler "tender_portal_backend/internal/dashboard/handler"
	dashboardrepo "tender_portal_backend/internal/dashboard/repository"
	dashboardservice "tender_portal_backend/internal/dashboard/service"
	"tender_portal_backend/internal/email"
	"tender_portal_backend/internal/events"
	"tender_portal_backend/internal/http/router"
	"tender_portal_backend/internal/notification"
	notificationrepo "tender_portal_backend/internal/notification/repository"
	"tender_portal_backend/internal/scheduler"
	"tender_portal_backend/internal/statuscatalog"
	workflowhandler "tender_portal_backend/internal/workflow/handler"
	workflowrepo "tender_portal_backend/internal/workflow/repository"
	workflowservice "tender_portal_backend/internal/workflow/service"
	"tender_portal_backend/platform/config"
	"tender_portal_backend/platform/db"
	"tender_portal_backend/platform/logger"
	"tender_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Forced-status codes are resolved by name once at startup. A missing
	// status row means the seed migration did not run; refuse to start.
	catalog, err := statuscatalog.Load(ctx, statuscatalog.NewRepository(pool))
	if err != nil {
		log.Error("failed to load status catalog", "error", err)
		panic("failed to load status catalog: " + err.Error())
	}
	log.Info("status catalog loaded")

	eventBus := events.NewInMemoryBus(log)

	advanceScheduler, closeScheduler := initAdvanceScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender := newEmailSender(cfg, log)
	val := validator.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	notificationModule := notification.NewModule(sender, notificationrepo.New(pool), log)
	notificationModule.RegisterHandlers(eventBus)

	engine := workflowservice.New(workflowrepo.New(pool), catalog, eventBus, advanceScheduler, log)

	dashboardsCfg, err := dashboardservice.LoadDashboardsConfig(cfg.DashboardsConfigPath)
	if err != nil {
		log.Error("failed to load dashboards config", "error", err)
		panic("failed to load dashboards config: " + err.Error())
	}
	dashboardSvc := dashboardservice.New(dashboardrepo.New(pool), catalog, dashboardsCfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	ginEngine := router.New(cfg, log, router.Handlers{
		Workflow:  workflowhandler.New(engine, val),
		Dashboard: dashboardhandler.New(dashboardSvc, val),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		// Let in-flight event handlers (notifications) finish before exit.
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initAdvanceScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.RAAdvanceScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; reverse auction advance tasks disabled, ticker sweep only")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize advance scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func newEmailSender(cfg *config.Config, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() {
		log.Warn("email delivery disabled; notifications will be dropped")
		return email.NoopSender{}
	}
	return email.NewSMTPSender(cfg)
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
