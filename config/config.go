package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Annany2002/nebula-query-gateway/internal/logger"
	"github.com/joho/godotenv"
)

var (
	customLog = logger.NewLogger()
)

// Config holds application configuration values
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// API secrets. Immutable after LoadConfig returns.
	ReadOnlyAPIKey  string
	ReadWriteAPIKey string

	CORSAllowedOrigins []string
	RateLimitPerMinute int // 0 disables the limiter

	// Driver-native MySQL timeouts; zero keeps the driver default.
	DBDialTimeout  time.Duration
	DBReadTimeout  time.Duration
	DBWriteTimeout time.Duration
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		ServerPort:         strings.TrimPrefix(getEnv("SERVER_PORT", "5000"), ":"),
		GinMode:            getEnv("GIN_MODE", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		ReadOnlyAPIKey:     getEnv("READ_ONLY_API_KEY", ""),
		ReadWriteAPIKey:    getEnv("READ_WRITE_API_KEY", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 0),
		DBDialTimeout:      getEnvDuration("DB_DIAL_TIMEOUT", 0),
		DBReadTimeout:      getEnvDuration("DB_READ_TIMEOUT", 0),
		DBWriteTimeout:     getEnvDuration("DB_WRITE_TIMEOUT", 0),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	customLog.Printf("Configuration loaded successfully. Port: %s, Rate limit: %d/min", cfg.ServerPort, cfg.RateLimitPerMinute)
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ReadOnlyAPIKey == "" && c.ReadWriteAPIKey == "" {
		return errors.New("at least one of READ_ONLY_API_KEY or READ_WRITE_API_KEY must be set")
	}
	if c.ReadWriteAPIKey == "" {
		customLog.Warnln("WARNING: READ_WRITE_API_KEY is not set, write statements will always be rejected")
	}
	if c.ReadOnlyAPIKey == "" {
		customLog.Warnln("WARNING: READ_ONLY_API_KEY is not set")
	}
	if c.ReadOnlyAPIKey != "" && c.ReadOnlyAPIKey == c.ReadWriteAPIKey {
		customLog.Warnln("WARNING: READ_ONLY_API_KEY equals READ_WRITE_API_KEY, the key grants write access")
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(raw) == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		customLog.Warnf("Invalid %s '%s'. Using default %d. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(raw) == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d < 0 {
		customLog.Warnf("Invalid %s '%s'. Using default %v. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return d
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
