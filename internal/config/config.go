package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Accounts     PostgresConfig
	Complaints   PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Sentiment    SentimentConfig
	Lifecycle    LifecycleConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values for one dataset.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	MetricsTTLSecs  int
	MetricsKeyspace string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	BcryptCost int
}

// SentimentConfig points at the external polarity service.
// An empty ServiceURL selects the in-process VADER analyzer.
type SentimentConfig struct {
	ServiceURL     string
	TimeoutSeconds int
}

// LifecycleConfig tunes complaint status handling.
type LifecycleConfig struct {
	ClearResolvedOnReopen bool
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	accounts := loadPostgres("POSTGRES", os.Getenv("POSTGRES_DSN"), "migrations/accounts")
	complaints := loadPostgres("COMPLAINTS_POSTGRES", getEnv("COMPLAINTS_POSTGRES_DSN", accounts.DSN), "migrations/complaints")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "grievance-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Accounts:   accounts,
		Complaints: complaints,
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			MetricsTTLSecs:  getEnvAsInt("REDIS_METRICS_TTL_SECONDS", 60),
			MetricsKeyspace: getEnv("REDIS_METRICS_KEYSPACE", "grievance:dashboard"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			BcryptCost: getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Sentiment: SentimentConfig{
			ServiceURL:     os.Getenv("SENTIMENT_SERVICE_URL"),
			TimeoutSeconds: getEnvAsInt("SENTIMENT_TIMEOUT_SECONDS", 5),
		},
		Lifecycle: LifecycleConfig{
			ClearResolvedOnReopen: getEnvAsBool("COMPLAINTS_CLEAR_RESOLVED_ON_REOPEN", false),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

func loadPostgres(prefix, dsn, migrationsDir string) PostgresConfig {
	return PostgresConfig{
		DSN:            dsn,
		MaxConns:       int32(getEnvAsInt(prefix+"_MAX_CONNS", 10)),
		MinConns:       int32(getEnvAsInt(prefix+"_MIN_CONNS", 2)),
		RunMigrations:  getEnvAsBool(prefix+"_RUN_MIGRATIONS", true),
		MigrationsDir:  getEnv(prefix+"_MIGRATIONS_DIR", migrationsDir),
		ConnMaxIdleSec: int32(getEnvAsInt(prefix+"_CONN_MAX_IDLE_SECONDS", 30)),
		ConnMaxLifeSec: int32(getEnvAsInt(prefix+"_CONN_MAX_LIFE_SECONDS", 300)),
	}
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// MetricsTTL returns how long a cached dashboard stays valid.
func (r RedisConfig) MetricsTTL() time.Duration {
	if r.MetricsTTLSecs <= 0 {
		return 0
	}
	return time.Duration(r.MetricsTTLSecs) * time.Second
}

// Timeout returns the per-call deadline for the sentiment service.
func (s SentimentConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
