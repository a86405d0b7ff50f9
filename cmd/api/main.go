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

	"imob_crm_backend/internal/events"
	apphttp "imob_crm_backend/internal/http"
	"imob_crm_backend/internal/http/router"
	"imob_crm_backend/internal/leads"
	"imob_crm_backend/internal/leads/agent"
	"imob_crm_backend/internal/leads/conversation"
	"imob_crm_backend/internal/scheduler"
	"imob_crm_backend/internal/settings"
	"imob_crm_backend/internal/webhook"
	"imob_crm_backend/migrations"
	"imob_crm_backend/platform/config"
	"imob_crm_backend/platform/db"
	"imob_crm_backend/platform/lock"
	"imob_crm_backend/platform/logger"
	"imob_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	lockKeyPrefix   = "imob:lock:"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "aiProvider", cfg.AIProvider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS, log)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	locker, closeLocker := initLocker(cfg, log)
	defer closeLocker()

	alerts, closeAlerts := initHandoffAlerts(cfg, log)
	defer closeAlerts()

	// Event bus for decoupled communication between modules.
	// Deferred after the closers so in-flight handlers drain while the alert
	// queue is still open.
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	generator, err := initReplyGenerator(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize reply generator", "error", err)
		panic("failed to initialize reply generator: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	settingsModule := settings.NewModule(pool, val, log)

	leadsModule, err := leads.NewModule(pool, eventBus, val, cfg, log, locker, generator, alerts, settingsModule.Repository())
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}
	webhookModule := webhook.NewModule(pool, leadsModule.ManagementService(), leadsModule.Conversation(), val, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			leadsModule,
			webhookModule,
			settingsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

// initLocker shares per-lead locks through Redis when configured so API
// replicas serialize the same lead.
func initLocker(cfg *config.Config, log *logger.Logger) (lock.Locker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; lead locks are process-local")
		return lock.NewLocal(), func() {}
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		panic("invalid REDIS_URL: " + err.Error())
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	}

	client := redis.NewClient(opt)
	return lock.NewRedis(client, lockKeyPrefix, cfg.GetLeadLockTTL()), func() {
		_ = client.Close()
	}
}

func initHandoffAlerts(cfg config.SchedulerConfig, log *logger.Logger) (leads.HandoffAlerter, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; hand-off alerts are only logged")
		return nil, func() {}
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize hand-off alert client", "error", err)
		return nil, func() {}
	}

	return client, func() {
		_ = client.Close()
	}
}

func initReplyGenerator(ctx context.Context, cfg config.AIConfig, log *logger.Logger) (conversation.ReplyGenerator, error) {
	llm, err := agent.NewModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if llm == nil {
		log.Warn("AI provider disabled; every reply uses the fallback text")
		return nil, nil
	}
	log.Info("reply generator initialized", "provider", cfg.GetAIProvider(), "model", cfg.GetAIModel())
	return agent.NewResponder(llm), nil
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

	return errors.New(name + ": " + lastErr.Error())
}
