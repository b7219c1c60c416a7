package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Hi-Rez API
	DevID             string
	AuthKey           string
	Endpoint          string
	Language          int
	SessionTTL        time.Duration
	RequestsPerMinute int

	// Storage
	DBPath      string
	ResultsPath string
	RedisURL    string
	CacheTTL    time.Duration

	// Collector
	QueueID       int
	CollectDates  []string
	CollectHours  []string
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Trainer
	Lambda             float64
	MaxIterations      int
	MinGodMatches      int
	MinItemAppearances int
	MinItemTier        int
	HoldoutFraction    float64
	FitParallelism     int
}

// Load loads configuration from environment variables. Every key has a
// default; binaries that need credentials call LoadCollector instead.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		Endpoint:          getEnv("SMITE_ENDPOINT", "pc"),
		Language:          getEnvInt("SMITE_LANG", 1),
		SessionTTL:        getEnvDuration("SESSION_TTL", 9*time.Minute),
		RequestsPerMinute: getEnvInt("REQUESTS_PER_MINUTE", 80),

		DBPath:      getEnv("DB_PATH", "smite.db"),
		ResultsPath: getEnv("RESULTS_PATH", "ratings.json"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CacheTTL:    getEnvDuration("CACHE_TTL", 24*time.Hour),

		QueueID:       getEnvInt("QUEUE_ID", 426),
		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		QueueSize:     getEnvInt("QUEUE_SIZE", 256),
		BatchSize:     getEnvInt("BATCH_SIZE", 200),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 2*time.Second),

		Lambda:             getEnvFloat("LAMBDA", 0.1),
		MaxIterations:      getEnvInt("MAX_ITERATIONS", 500),
		MinGodMatches:      getEnvInt("MIN_GOD_MATCHES", 50),
		MinItemAppearances: getEnvInt("MIN_ITEM_APPEARANCES", 10),
		MinItemTier:        getEnvInt("MIN_ITEM_TIER", 3),
		HoldoutFraction:    getEnvFloat("HOLDOUT_FRACTION", 0.2),
		FitParallelism:     getEnvInt("FIT_PARALLELISM", 4),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	rawOrigins := strings.Split(origins, ",")
	for _, o := range rawOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Collection window. Dates are yyyyMMdd; hour "-1" means the whole day.
	cfg.CollectDates = getEnvList("COLLECT_DATES", nil)
	cfg.CollectHours = getEnvList("COLLECT_HOURS", []string{"-1"})

	return cfg, nil
}

// LoadCollector loads configuration and additionally requires the Hi-Rez
// developer credentials, which only the API-facing binaries need.
func LoadCollector() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg.DevID, err = getEnvRequired("SMITE_DEV_ID"); err != nil {
		return nil, err
	}
	if cfg.AuthKey, err = getEnvRequired("SMITE_AUTH_KEY"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
