package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/queue-bot/internal/bot"
	"github.com/Proton-105/queue-bot/internal/conversation"
	"github.com/Proton-105/queue-bot/internal/database"
	apperrors "github.com/Proton-105/queue-bot/internal/errors"
	"github.com/Proton-105/queue-bot/internal/faq"
	"github.com/Proton-105/queue-bot/internal/health"
	"github.com/Proton-105/queue-bot/internal/i18n"
	"github.com/Proton-105/queue-bot/internal/idempotency"
	"github.com/Proton-105/queue-bot/internal/jobs"
	jobhandlers "github.com/Proton-105/queue-bot/internal/jobs/handlers"
	"github.com/Proton-105/queue-bot/internal/lifecycle"
	"github.com/Proton-105/queue-bot/internal/listing"
	"github.com/Proton-105/queue-bot/internal/menu"
	"github.com/Proton-105/queue-bot/internal/middleware"
	"github.com/Proton-105/queue-bot/internal/notify"
	"github.com/Proton-105/queue-bot/internal/platform/telegram"
	"github.com/Proton-105/queue-bot/internal/promotion"
	"github.com/Proton-105/queue-bot/internal/ratelimit"
	"github.com/Proton-105/queue-bot/internal/repository"
	"github.com/Proton-105/queue-bot/internal/state"
	"github.com/Proton-105/queue-bot/internal/store"
	"github.com/Proton-105/queue-bot/internal/user"
	"github.com/Proton-105/queue-bot/internal/usercache"
	"github.com/Proton-105/queue-bot/internal/waitlist"
	"github.com/Proton-105/queue-bot/migrations"
	"github.com/Proton-105/queue-bot/pkg/config"
	"github.com/Proton-105/queue-bot/pkg/graceful"
	"github.com/Proton-105/queue-bot/pkg/logger"
	"github.com/Proton-105/queue-bot/pkg/metrics"
	appredis "github.com/Proton-105/queue-bot/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("queue bot stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.AppEnv}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)
	config.Watch(v, func(next *config.Config) {
		logger.SetLevel(next.Logger.Level)
		log.Info("configuration reloaded", slog.String("log_level", next.Logger.Level))
	}, func(err error) {
		log.Warn("ignoring invalid configuration change", slog.Any("error", err))
	})

	log.Info("starting queue bot", slog.String("mode", cfg.Bot.Mode), slog.String("ops_port", cfg.Server.Port))

	redisClient, err := appredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.GetDBConnectionString())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var migrationsFS fs.FS = migrations.FS
	if cfg.Database.MigrationsDir != "" {
		migrationsFS = os.DirFS(cfg.Database.MigrationsDir)
	}
	if _, err := database.NewMigrator(db, log).Apply(ctx, migrationsFS, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	catalog, err := loadCatalog(cfg.I18n)
	if err != nil {
		return fmt.Errorf("load copy catalog: %w", err)
	}

	// Conversation core.
	kv := store.NewRedisStore(redisClient,
		store.WithMaxConflictRetries(cfg.Waitlist.MaxConflictRetries),
		store.WithLogger(log),
	)
	listings := listing.NewStore(kv)
	queue := waitlist.NewManager(listings, log)
	fsm := state.NewStateMachine(
		state.NewRedisStorage(redisClient.Client, log, cfg.State.TTL),
		log,
		redisClient.Client,
		state.WithLockTTL(cfg.State.LockTTL),
		state.WithLockWait(cfg.State.LockWait),
	)

	tb, err := bot.NewTelebot(cfg.Bot)
	if err != nil {
		return err
	}
	breaker := apperrors.NewCircuitBreaker(apperrors.WithOnStateChange(func(from, to apperrors.State) {
		log.Warn("telegram circuit breaker changed state", slog.String("from", from.String()), slog.String("to", to.String()))
	}))
	platform := telegram.New(tb, telegram.NewLimiter(cfg.Notify.RatePerSecond, cfg.Notify.Burst), breaker, log)
	notifier := notify.NewDispatcher(platform, log, cfg.Notify.Concurrency)

	jobManager := jobs.NewManager(cfg.Redis.AsynqOpt(), log)
	promoter := promotion.NewPromoter(fsm, listings, notifier, menu.New(catalog.Default()), log)
	promoter.SetRetryScheduler(jobManager)
	queue.Subscribe(promoter)

	users := user.NewService(
		repository.NewUserRepository(db, log),
		usercache.NewCache(redisClient.Client, 10*time.Minute),
		log,
	)

	router := conversation.NewRouter(conversation.Deps{
		FSM:       fsm,
		Listings:  listings,
		Waitlist:  queue,
		FAQ:       faq.NewSequencer(listings, catalog.Default().List("faq.questions")),
		Notifier:  notifier,
		Directory: users,
		Catalog:   catalog,
		Log:       log,
	})

	// Telegram shell.
	var rateLimitMw *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		rules, err := ratelimit.NewRules(cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("rate limit rules: %w", err)
		}
		memory := ratelimit.NewMemoryLimiter(log)
		go sweepMemoryLimiter(ctx, memory)
		limiter := ratelimit.NewFallbackLimiter(ratelimit.NewRedisLimiter(redisClient.Client, log), memory, 30*time.Second, log)
		rateLimitMw = middleware.NewRateLimitMiddleware(limiter, rules, catalog, log)
	}

	idemStore := idempotency.NewRedisStore(redisClient.Client, log)
	b := bot.New(tb, bot.Deps{
		Conversation: router,
		FSM:          fsm,
		Catalog:      catalog,
		Users:        users,
		Activity:     users,
		Idempotency:  idempotency.NewManager(idemStore, log),
		RateLimit:    rateLimitMw,
		SentryOn:     cfg.Sentry.Enabled,
	}, log)

	// Background work.
	worker := jobs.NewWorker(cfg.Redis.AsynqOpt(), cfg.Jobs.Concurrency, jobs.DefaultQueues, log)
	worker.RegisterHandler(jobs.TaskTypePromotionRetry, jobhandlers.NewPromotionRetryHandler(promoter, log))
	worker.RegisterHandler(jobs.TaskTypeSessionSweep, jobhandlers.NewSessionSweepHandler(state.NewCleaner(fsm, log, cfg.State.TTL), log))

	scheduler := jobs.NewScheduler(cfg.Redis.AsynqOpt(), cfg.Jobs.SweepCron, log)
	if err := scheduler.RegisterTasks(); err != nil {
		return fmt.Errorf("register scheduled tasks: %w", err)
	}

	// Ops HTTP.
	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log, 2*time.Second)
	checker.AddCheck("redis", health.NewRedisChecker(redisClient))
	checker.AddCheck("postgres", health.NewDBChecker(db))
	checker.AddCheck("telegram", health.NewTelegramChecker(tb))
	probes := lifecycle.NewProbes(checker, shutdown, log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.Handler())
	mux.Handle("/livez", probes.LiveHandler())
	mux.Handle("/readyz", probes.ReadyHandler())
	ops := graceful.NewServer(log, cfg.Server.Port, logger.Middleware(middleware.HTTPLogging(log)(mux)), cfg.Server.ShutdownTimeout)

	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	go b.Start()
	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker stopped", slog.Any("error", err))
		}
	}()
	scheduler.Run()
	go metrics.NewStateCollector(fsm, 30*time.Second).Run(bgCtx)
	go idempotency.NewCleaner(redisClient.Client, log, time.Hour, 25*time.Hour).Run(bgCtx)

	opsErr := make(chan error, 1)
	go func() { opsErr <- ops.ListenAndServe(bgCtx) }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-opsErr:
		if err != nil {
			log.Error("ops server failed", slog.Any("error", err))
		}
	}

	shutdown.Register(lifecycle.Func("telegram", b.Stop))
	shutdown.Register(
		lifecycle.Func("jobs worker", worker.Shutdown),
		lifecycle.Func("jobs scheduler", scheduler.Shutdown),
		lifecycle.Hook{Name: "ops server", Fn: ops.Shutdown},
	)
	shutdown.Register(
		lifecycle.Hook{Name: "jobs client", Fn: func(context.Context) error { return jobManager.Close() }},
		lifecycle.Hook{Name: "redis", Fn: func(context.Context) error { return redisClient.Close() }},
		lifecycle.Hook{Name: "postgres", Fn: func(context.Context) error { return db.Close() }},
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), orDefault(cfg.Server.ShutdownTimeout, 15*time.Second))
	defer cancel()
	cancelBg()

	if err := shutdown.Execute(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("queue bot stopped")
	return nil
}

func loadCatalog(cfg config.I18nConfig) (*i18n.Manager, error) {
	if cfg.Dir != "" {
		return i18n.LoadFromDir(cfg.Dir, cfg.DefaultLang)
	}
	return i18n.Load(cfg.DefaultLang)
}

func sweepMemoryLimiter(ctx context.Context, limiter *ratelimit.MemoryLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Cleanup(time.Hour)
		}
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
