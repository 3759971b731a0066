package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Shortener ShortenerConfig
	Clicks    ClicksConfig
	GeoIP     GeoIPConfig
	App       AppConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" required:"true"`
	Host            string        `envconfig:"SERVER_HOST" required:"true"`
	BaseURL         string        `envconfig:"SERVER_BASE_URL" required:"true"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" required:"true"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" required:"true"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" required:"true"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" required:"true"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" required:"true"`
	Port     string `envconfig:"DB_PORT" required:"true"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	Name     string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSLMODE" required:"true"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" required:"true"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" required:"true"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.MinConns <= 0 {
		return fmt.Errorf("min connections must be positive")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.MinConns, c.MaxConns)
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s (must be one of: disable, require, verify-ca, verify-full)", c.SSLMode)
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URL returns the PostgreSQL connection URL, as expected by
// golang-migrate.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// RedisConfig holds Redis connection configuration. Redis backs both the
// redirect cache and the rate limiter.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" required:"true"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Validate validates the Redis configuration.
func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	if c.DB < 0 {
		return fmt.Errorf("db index cannot be negative")
	}
	return nil
}

// CacheConfig holds redirect cache tuning.
type CacheConfig struct {
	PositiveTTL time.Duration `envconfig:"CACHE_POSITIVE_TTL" default:"720h"`
	NegativeTTL time.Duration `envconfig:"CACHE_NEGATIVE_TTL" default:"5m"`
	WarmLimit   int           `envconfig:"CACHE_WARM_LIMIT" default:"100"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if c.PositiveTTL <= 0 {
		return fmt.Errorf("positive TTL must be positive")
	}
	if c.NegativeTTL <= 0 {
		return fmt.Errorf("negative TTL must be positive")
	}
	if c.NegativeTTL >= c.PositiveTTL {
		return fmt.Errorf("negative TTL (%v) should be shorter than positive TTL (%v)", c.NegativeTTL, c.PositiveTTL)
	}
	if c.WarmLimit < 0 {
		return fmt.Errorf("warm limit cannot be negative")
	}
	return nil
}

// RateLimitConfig holds fixed-window rate limit tuning for the public
// redirect and preview endpoints.
type RateLimitConfig struct {
	RedirectLimit int           `envconfig:"RATE_LIMIT_REDIRECT" default:"30"`
	PreviewLimit  int           `envconfig:"RATE_LIMIT_PREVIEW" default:"10"`
	Window        time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`
}

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	if c.RedirectLimit <= 0 {
		return fmt.Errorf("redirect limit must be positive")
	}
	if c.PreviewLimit <= 0 {
		return fmt.Errorf("preview limit must be positive")
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	return nil
}

// ShortenerConfig holds short-code generation tuning.
type ShortenerConfig struct {
	CodeLength int `envconfig:"SHORTENER_CODE_LENGTH" default:"5"`
	MaxRetries int `envconfig:"SHORTENER_MAX_RETRIES" default:"5"`
}

// Validate validates the shortener configuration.
func (c *ShortenerConfig) Validate() error {
	if c.CodeLength < 1 || c.CodeLength > 15 {
		return fmt.Errorf("code length must be between 1 and 15, got %d", c.CodeLength)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive")
	}
	return nil
}

// ClicksConfig holds click recording pipeline tuning.
type ClicksConfig struct {
	BufferSize int `envconfig:"CLICKS_BUFFER_SIZE" default:"1024"`
	Workers    int `envconfig:"CLICKS_WORKERS" default:"4"`
}

// Validate validates the clicks configuration.
func (c *ClicksConfig) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}

// GeoIPConfig holds GeoIP database configuration. When DBPath is empty,
// clicks are recorded without country/city enrichment.
type GeoIPConfig struct {
	DBPath string `envconfig:"GEOIP_DB_PATH"`
}

// Validate validates the GeoIP configuration.
func (c *GeoIPConfig) Validate() error {
	return nil
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment    string `envconfig:"APP_ENV" required:"true"`   // development, staging, production, test
	LogLevel       string `envconfig:"LOG_LEVEL" required:"true"` // debug, info, warn, error
	ServiceName    string `envconfig:"APP_SERVICE_NAME" default:"shortlink"`
	ServiceVersion string `envconfig:"APP_SERVICE_VERSION" default:"dev"`
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// Load loads configuration from environment variables only.
// (Do .env loading in cmd/server/main.go for dev, not here.)
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load Server config: %w", err)
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to load Database config: %w", err)
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Database config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Redis); err != nil {
		return nil, fmt.Errorf("failed to load Redis config: %w", err)
	}
	if err := cfg.Redis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Redis config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Cache); err != nil {
		return nil, fmt.Errorf("failed to load Cache config: %w", err)
	}
	if err := cfg.Cache.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Cache config: %w", err)
	}

	if err := envconfig.Process("", &cfg.RateLimit); err != nil {
		return nil, fmt.Errorf("failed to load RateLimit config: %w", err)
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return nil, fmt.Errorf("invalid RateLimit config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Shortener); err != nil {
		return nil, fmt.Errorf("failed to load Shortener config: %w", err)
	}
	if err := cfg.Shortener.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Shortener config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Clicks); err != nil {
		return nil, fmt.Errorf("failed to load Clicks config: %w", err)
	}
	if err := cfg.Clicks.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Clicks config: %w", err)
	}

	if err := envconfig.Process("", &cfg.GeoIP); err != nil {
		return nil, fmt.Errorf("failed to load GeoIP config: %w", err)
	}
	if err := cfg.GeoIP.Validate(); err != nil {
		return nil, fmt.Errorf("invalid GeoIP config: %w", err)
	}

	if err := envconfig.Process("", &cfg.App); err != nil {
		return nil, fmt.Errorf("failed to load App config: %w", err)
	}
	if err := cfg.App.Validate(); err != nil {
		return nil, fmt.Errorf("invalid App config: %w", err)
	}

	return cfg, nil
}
