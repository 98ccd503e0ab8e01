package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Serving   ServingConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AccessLogFilePath  string // empty sends access logs to the main logger
	CorsAllowedOrigins string
	StorageDriver      string // "postgres" or "memory"
	NatsURL            string // empty disables forwarding to NATS
	RedisURL           string
	EventTopic         string
}

type DatabaseConfig struct {
	Connection      string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

type ServingConfig struct {
	MaxBatchSize     int
	MaxServeFeatures int
	MaxServeEntities int
	ServeTimeout     time.Duration
	DefaultPageSize  int
	MaxPageSize      int
}

type CacheConfig struct {
	FeatureTTL time.Duration // 0 disables the catalog cache
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/feature-store.log"),
			AccessLogFilePath:  getEnv("ACCESS_LOG_FILE_PATH", "logs/access.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			StorageDriver:      getEnv("STORAGE_DRIVER", StorageDriverPostgres),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			EventTopic:         getEnv("FEATURE_EVENT_TOPIC", "feature.events"),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Serving: ServingConfig{
			MaxBatchSize:     getEnvAsInt("FEATURE_BATCH_SIZE", 1000),
			MaxServeFeatures: getEnvAsInt("SERVE_MAX_FEATURES", 100),
			MaxServeEntities: getEnvAsInt("SERVE_MAX_ENTITIES", 1000),
			ServeTimeout:     getEnvAsDuration("SERVE_TIMEOUT", 2*time.Second),
			DefaultPageSize:  getEnvAsInt("DEFAULT_PAGE_SIZE", 50),
			MaxPageSize:      getEnvAsInt("MAX_PAGE_SIZE", 1000),
		},
		Cache: CacheConfig{
			FeatureTTL: getEnvAsDuration("FEATURE_CACHE_TTL", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvAsBool("RATE_LIMIT_ENABLED", false),
			Requests: getEnvAsInt("RATE_LIMIT_DEFAULT", 1000),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "feature-store-be"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
