// Package config loads learntrack configuration from the environment.
// A .env file in the working directory, when present, is read first;
// variables already set in the process environment win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// StorageDriver selects the persistence backend.
type StorageDriver string

const (
	StoragePostgres StorageDriver = "postgres"
	StorageMemory   StorageDriver = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	App           AppConfig
	Storage       StorageConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Catalog       CatalogConfig
	HTTP          HTTPConfig
	Observability ObservabilityConfig
}

// AppConfig contains general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	ShutdownTimeout time.Duration
}

// StorageConfig selects where the learner's data lives.
type StorageConfig struct {
	Driver StorageDriver
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the full connection string; DB_* variables are used when it is empty.
	URL string

	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// AutoMigrate applies pending migrations on serve.
	AutoMigrate bool
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	URL string

	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Disabled turns off every cache; reads go straight to the catalog and storage.
	Disabled bool
}

// CatalogConfig contains remote course catalog settings.
type CatalogConfig struct {
	BaseURL string
	APIKey  string

	RequestTimeout time.Duration
	FetchTimeout   time.Duration // both enrollment fetches together

	RateLimit      float64 // requests per second
	RateLimitBurst int

	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration

	CacheTTL         time.Duration
	ProgressCacheTTL time.Duration
}

// HTTPConfig contains REST server settings.
type HTTPConfig struct {
	Host string
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Addr returns host:port for the listener.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// ObservabilityConfig contains logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, console

	MetricsEnabled bool
}

// Load reads configuration from .env (optional) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds and validates the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		App:           loadAppConfig(),
		Storage:       StorageConfig{Driver: StorageDriver(strings.ToLower(getEnv("STORAGE_DRIVER", string(StoragePostgres))))},
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Catalog:       loadCatalogConfig(),
		HTTP:          loadHTTPConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", string(EnvDevelopment)))
	return AppConfig{
		Name:            getEnv("APP_NAME", "learntrack"),
		Environment:     env,
		Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	dsn := getEnv("DATABASE_URL", "")
	if dsn == "" {
		host := getEnv("DB_HOST", "")
		user := getEnv("DB_USER", "")
		if host != "" && user != "" {
			u := url.URL{
				Scheme:   "postgres",
				User:     url.UserPassword(user, getEnv("DB_PASSWORD", "")),
				Host:     fmt.Sprintf("%s:%s", host, getEnv("DB_PORT", "5432")),
				Path:     getEnv("DB_NAME", "learntrack"),
				RawQuery: "sslmode=" + getEnv("DB_SSLMODE", "disable"),
			}
			dsn = u.String()
		}
	}

	return DatabaseConfig{
		URL:             dsn,
		MaxConns:        getEnvInt("DB_MAX_CONNS", 5),
		MinConns:        getEnvInt("DB_MIN_CONNS", 1),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:          getEnv("REDIS_URL", ""),
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func loadCatalogConfig() CatalogConfig {
	return CatalogConfig{
		BaseURL:                 strings.TrimRight(getEnv("CATALOG_BASE_URL", ""), "/"),
		APIKey:                  getEnv("CATALOG_API_KEY", ""),
		RequestTimeout:          getEnvDuration("CATALOG_REQUEST_TIMEOUT", 10*time.Second),
		FetchTimeout:            getEnvDuration("CATALOG_FETCH_TIMEOUT", 20*time.Second),
		RateLimit:               getEnvFloat("CATALOG_RATE_LIMIT", 5),
		RateLimitBurst:          getEnvInt("CATALOG_RATE_LIMIT_BURST", 2),
		CircuitBreakerThreshold: getEnvInt("CATALOG_CB_THRESHOLD", 5),
		CircuitBreakerTimeout:   getEnvDuration("CATALOG_CB_TIMEOUT", 30*time.Second),
		CacheTTL:                getEnvDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		ProgressCacheTTL:        getEnvDuration("PROGRESS_CACHE_TTL", 5*time.Minute),
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Host:         getEnv("HTTP_HOST", "127.0.0.1"),
		Port:         getEnvInt("HTTP_PORT", 8080),
		ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	switch c.Storage.Driver {
	case StoragePostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL (or DB_HOST and DB_USER) is required for the postgres driver")
		}
	case StorageMemory:
		if c.App.Environment == EnvProduction {
			errs = append(errs, "STORAGE_DRIVER=memory is not allowed in production")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_DRIVER must be postgres or memory, got %q", c.Storage.Driver))
	}

	if c.Catalog.BaseURL == "" {
		errs = append(errs, "CATALOG_BASE_URL is required")
	} else if u, err := url.Parse(c.Catalog.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "CATALOG_BASE_URL must be an absolute URL")
	}
	if c.Catalog.RateLimit <= 0 {
		errs = append(errs, "CATALOG_RATE_LIMIT must be positive")
	}
	if c.Catalog.CircuitBreakerThreshold <= 0 {
		errs = append(errs, "CATALOG_CB_THRESHOLD must be positive")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, "HTTP_PORT must be 1-65535")
	}

	switch strings.ToLower(c.Observability.LogFormat) {
	case "json", "console":
	default:
		errs = append(errs, "LOG_FORMAT must be json or console")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
