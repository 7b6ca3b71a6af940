package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendDocstore = "docstore"
	BackendMemory   = "memory"
)

type Config struct {
	Env            string
	Port           string
	DataBackend    string
	DatabaseURL    string
	DocstorePath   string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	ReadOnly       bool
	Timezone       string
	Location       *time.Location
	CacheMaxItems  int64
	CacheTTL       time.Duration
	AMQPURL        string
	AMQPExchange   string
	LogLevel       string
	LogFormat      string

	problems []string
}

// Load reads .env (if present) and the environment, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	cfg := &Config{
		Env:            getEnv("APP_ENV", "production"),
		Port:           getEnv("PORT", "8080"),
		DataBackend:    strings.ToLower(getEnv("DATA_BACKEND", BackendMemory)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DocstorePath:   getEnv("DOCSTORE_PATH", "data/fintrack.db"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		Timezone:       getEnv("TIMEZONE", "Local"),
		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "fintrack.changes"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}
	cfg.TokenTTL = cfg.duration("TOKEN_TTL", 168*time.Hour)
	cfg.CacheTTL = cfg.duration("CACHE_TTL", 5*time.Minute)
	cfg.CacheMaxItems = int64(cfg.integer("CACHE_MAX_ITEMS", 10000))
	cfg.ReadOnly = cfg.boolean("READ_ONLY", false)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		cfg.problems = append(cfg.problems, fmt.Sprintf("invalid TIMEZONE '%s': %v", cfg.Timezone, err))
		loc = time.Local
	}
	cfg.Location = loc
	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	errors := append([]string(nil), c.problems...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when DATA_BACKEND=postgres")
		}
	case BackendDocstore:
		if strings.TrimSpace(c.DocstorePath) == "" {
			errors = append(errors, "DOCSTORE_PATH cannot be empty when DATA_BACKEND=docstore")
		}
	case BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s %s]",
			c.DataBackend, BackendPostgres, BackendDocstore, BackendMemory))
	}

	switch {
	case c.JWTSecret == "" && !c.IsDevelopment():
		errors = append(errors, "JWT_SECRET is required")
	case c.JWTSecret != "" && len(c.JWTSecret) < 16 && !c.IsDevelopment():
		errors = append(errors, "JWT_SECRET must be at least 16 bytes")
	}

	if c.TokenTTL <= 0 {
		errors = append(errors, "TOKEN_TTL must be positive")
	}
	if c.CacheMaxItems <= 0 {
		errors = append(errors, "CACHE_MAX_ITEMS must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("invalid %s '%s': %v", key, raw, err))
		return fallback
	}
	return d
}

func (c *Config) integer(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("invalid %s '%s': must be a number", key, raw))
		return fallback
	}
	return i
}

func (c *Config) boolean(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("invalid %s '%s': must be true or false", key, raw))
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
