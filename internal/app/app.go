package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/shortlink/internal/analytics"
	"github.com/sundayezeilo/shortlink/internal/clicks"
	"github.com/sundayezeilo/shortlink/internal/config"
	"github.com/sundayezeilo/shortlink/internal/db"
	"github.com/sundayezeilo/shortlink/internal/linkcache"
	"github.com/sundayezeilo/shortlink/internal/ratelimit"
	"github.com/sundayezeilo/shortlink/internal/server"
	"github.com/sundayezeilo/shortlink/internal/shortener"
)

// shutdownDrainTimeout bounds how long the click pipeline may drain on exit.
const shutdownDrainTimeout = 10 * time.Second

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DBPool  *pgxpool.Pool
	Redis   *redis.Client
	Clicks  *clicks.Pipeline
	Server  *server.Server
	Handler *shortener.Handler

	geoCloser interface{ Close() error }
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"service", cfg.App.ServiceName,
		"version", cfg.App.ServiceVersion,
	)

	// Connect to database and bring the schema current
	dbPool, err := db.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(cfg.Database.URL(), logger); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Connect to Redis; it backs both the redirect cache and the limiter
	redisClient, err := connectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	cache := linkcache.New(
		linkcache.NewRedisKV(redisClient),
		cfg.Cache.PositiveTTL,
		cfg.Cache.NegativeTTL,
	)
	limiter := ratelimit.New(ratelimit.NewRedisCounter(redisClient))

	app := &App{
		Config: cfg,
		Logger: logger,
		DBPool: dbPool,
		Redis:  redisClient,
	}

	// GeoIP is optional: without a database clicks are stored unlocated
	locator, err := setupLocator(cfg.GeoIP, logger)
	if err != nil {
		app.Shutdown()
		return nil, err
	}
	if closer, ok := locator.(interface{ Close() error }); ok {
		app.geoCloser = closer
	}

	app.Clicks = clicks.NewPipeline(clicks.PipelineConfig{
		Repo:       clicks.NewRepo(dbPool),
		Locator:    locator,
		Logger:     logger,
		BufferSize: cfg.Clicks.BufferSize,
		Workers:    cfg.Clicks.Workers,
	})

	// Setup application dependencies
	repo := shortener.NewRepository(dbPool, nil)
	svc := shortener.NewService(repo, cache, &shortener.ServiceConfig{
		Logger:         logger,
		CodeLength:     cfg.Shortener.CodeLength,
		CodeMaxRetries: cfg.Shortener.MaxRetries,
	})
	analyticsSvc := analytics.NewService(analytics.NewRepository(dbPool))

	app.Handler = shortener.NewHandler(shortener.HandlerConfig{
		Service:       svc,
		Analytics:     analyticsSvc,
		Limiter:       limiter,
		Recorder:      app.Clicks,
		Logger:        logger,
		BaseURL:       cfg.Server.BaseURL,
		RedirectLimit: cfg.RateLimit.RedirectLimit,
		PreviewLimit:  cfg.RateLimit.PreviewLimit,
		LimitWindow:   cfg.RateLimit.Window,
	})

	// Create server
	app.Server = server.New(cfg, logger, app.Handler)

	// Prime the redirect cache with the busiest links
	if cfg.Cache.WarmLimit > 0 {
		if warmed, err := svc.WarmCache(ctx, cfg.Cache.WarmLimit); err != nil {
			logger.Warn("cache warm on boot failed", "error", err)
		} else {
			logger.Info("cache warmed on boot", "entries", warmed)
		}
	}

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	return app, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting",
		"port", a.Config.Server.Port,
		"base_url", a.Config.Server.BaseURL,
	)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application. The click pipeline drains
// before the stores it writes to are closed.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.Clicks != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownDrainTimeout)
		defer cancel()
		if err := a.Clicks.Close(ctx); err != nil {
			a.Logger.Warn("click pipeline did not drain in time",
				"error", err,
				"dropped", a.Clicks.Dropped(),
			)
		}
	}

	if a.geoCloser != nil {
		if err := a.geoCloser.Close(); err != nil {
			a.Logger.Warn("failed to close geoip database", "error", err)
		}
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis client", "error", err)
		}
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database connection closed")
	}

	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// connectRedis establishes and verifies the Redis connection.
func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis connection established", "addr", cfg.Addr, "db", cfg.DB)

	return client, nil
}

// setupLocator builds the GeoIP locator from configuration.
func setupLocator(cfg config.GeoIPConfig, logger *slog.Logger) (clicks.Locator, error) {
	if cfg.DBPath == "" {
		logger.Info("no geoip database configured, clicks will not be located")
		return clicks.NopLocator{}, nil
	}

	locator, err := clicks.NewMaxMindLocator(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database: %w", err)
	}

	logger.Info("geoip database loaded", "path", cfg.DBPath)

	return locator, nil
}
