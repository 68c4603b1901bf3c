package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Port string

	DataBackend string
	MongoURI    string
	MongoDB     string
	DatabaseURL string

	JWTSecret string
	TokenTTL  time.Duration

	CacheTTL           time.Duration
	CacheFlushSchedule string

	AllowedOrigins []string
	DemoMode       bool

	LogLevel  string
	LogFormat string
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "5000"),

		DataBackend: strings.ToLower(getEnv("DATA_BACKEND", BackendMongo)),
		MongoURI:    getEnv("MONGO_URI", ""),
		MongoDB:     getEnv("MONGO_DB", "expense_tracker"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 168*time.Hour),

		CacheTTL:           getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheFlushSchedule: getEnv("CACHE_FLUSH_SCHEDULE", "@daily"),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		DemoMode:       getEnvBool("DEMO_MODE", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid PORT %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid PORT %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			problems = append(problems, "MONGO_URI is required for the mongo backend")
		}
		if c.MongoDB == "" {
			problems = append(problems, "MONGO_DB is required for the mongo backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres backend")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid DATA_BACKEND %q: must be one of mongo, postgres, memory", c.DataBackend))
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL must be positive")
	}
	if c.CacheTTL < 0 {
		problems = append(problems, "CACHE_TTL must not be negative")
	}

	if len(problems) > 0 {
		return errors.New("configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
