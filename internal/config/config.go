package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Addr     string
	LogLevel string

	StoreBackend  string // memory | postgres
	DatabaseURL   string
	MigrationsDir string

	SessionBackend string // memory | redis
	RedisAddr      string
	SessionTTL     time.Duration
	CookieSecure   bool

	MetricsEnabled bool
	MetricsToken   string
}

// Load reads configuration from the environment, with a .env file as an
// optional overlay for local development.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:     ":" + getenv("PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		StoreBackend:  getenv("STORE_BACKEND", BackendMemory),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		MigrationsDir: getenv("MIGRATIONS_DIR", "internal/store/migrations"),

		SessionBackend: getenv("SESSION_BACKEND", BackendMemory),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		CookieSecure:   getbool("COOKIE_SECURE", false),

		MetricsEnabled: getbool("METRICS_ENABLED", false),
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	}

	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "168h"))
	if err != nil {
		return Config{}, fmt.Errorf("bad SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = ttl

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.SessionBackend {
	case BackendMemory, BackendRedis:
	default:
		return Config{}, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
