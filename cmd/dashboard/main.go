// Package main - точка входа для Study Dashboard.
//
// Процесс поднимает хранилище (PostgreSQL или in-memory), создаёт программу
// обучения при первом запуске и обслуживает JSON API панели прогресса.
//
// Флаг -migrate=status|up|down выполняет только миграции и завершается.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Application layer
	"github.com/studytrack/study-dashboard/config"
	"github.com/studytrack/study-dashboard/internal/application/query"
	"github.com/studytrack/study-dashboard/internal/domain/study"

	// Infrastructure layer
	"github.com/studytrack/study-dashboard/internal/infrastructure/persistence/memory"
	"github.com/studytrack/study-dashboard/internal/infrastructure/persistence/postgres"
	"github.com/studytrack/study-dashboard/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/studytrack/study-dashboard/internal/interface/http"
	"github.com/studytrack/study-dashboard/internal/interface/http/handlers"

	// Packages
	"github.com/studytrack/study-dashboard/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	envFile := flag.String("env-file", ".env", "optional .env file loaded before the environment")
	migrate := flag.String("migrate", "", "run migrations and exit: status, up or down")
	flag.Parse()

	// Корневой контекст отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *envFile, *migrate); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, envFile, migrate string) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Study Dashboard",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("driver", cfg.Database.Driver),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)

	var gateway study.Gateway
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on exit")
		mem := memory.NewGateway()
		checker.AddCheck("storage", handlers.NewDatabaseCheck(mem))
		gateway = mem

	default:
		log.Info("connecting to database...")
		pgCfg := postgres.DefaultConfig(cfg.Database.URL)
		pgCfg.MaxConns = cfg.Database.MaxConns
		conn, err := postgres.NewConnection(ctx, pgCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			conn.Close()
		}()
		log.Info("database connection established")

		if migrate != "" {
			return runMigrations(ctx, log, postgres.NewMigrator(conn), migrate)
		}

		checker.AddCheck("database", handlers.NewDatabaseCheck(conn))
		gateway = postgres.NewGateway(conn)
	}

	if migrate != "" {
		return fmt.Errorf("-migrate requires DB_DRIVER=%s", config.DriverPostgres)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПРОГРАММА ОБУЧЕНИЯ (миграции + однократное создание)
	// ─────────────────────────────────────────────────────────────────────────
	defaults := study.ProgramDefaults{
		Name:            cfg.Program.Name,
		TotalCredits:    cfg.Program.TotalCredits,
		NominalDuration: cfg.Program.NominalDuration,
	}
	if err := gateway.Initialize(ctx, defaults); err != nil {
		return fmt.Errorf("failed to initialize program: %w", err)
	}
	log.Info("program ready",
		logger.String("program", defaults.Name),
		logger.Int("semesters", defaults.NominalDuration),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (опционально, только для rate limit)
	// ─────────────────────────────────────────────────────────────────────────
	deps := httpserver.NewDependencies(gateway, query.DashboardSettings{
		SemesterCreditTarget: cfg.Dashboard.SemesterCreditTarget,
		GradeTarget:          cfg.Dashboard.GradeTarget,
	})
	deps.Logger = log.With(logger.Component("http"))
	deps.HealthChecker = checker

	if cfg.Redis.Enabled && cfg.HTTP.RateLimitPerMinute > 0 {
		log.Info("connecting to Redis...")
		client, err := redis.NewClient(redis.Config{
			URL:          cfg.Redis.URL,
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, using in-process rate limiter", logger.Err(err))
		} else {
			defer client.Close()
			checker.AddCheck("redis", handlers.NewCacheCheck(client))
			deps.RateLimiter = redis.NewRateLimitStore(client, "api", cfg.HTTP.RateLimitPerMinute, time.Minute)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.RequestTimeout = cfg.Database.QueryTimeout

	server := httpserver.NewServer(httpCfg, deps)
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// runMigrations выполняет команду -migrate и печатает состояние схемы.
func runMigrations(ctx context.Context, log *logger.Logger, m *postgres.Migrator, action string) error {
	switch action {
	case "up":
		if err := m.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if err := m.Rollback(ctx); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	case "status":
	default:
		return fmt.Errorf("unknown -migrate action %q (want status, up or down)", action)
	}

	migrations, err := m.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	for _, mg := range migrations {
		log.Info("migration",
			logger.Int("version", mg.Version),
			logger.String("name", mg.Name),
			logger.Bool("applied", mg.IsApplied),
		)
	}
	return nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Format = logger.ParseFormat(cfg.Observability.LogFormat)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts).With(logger.String("app", cfg.App.Name))
}
