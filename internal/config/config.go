package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	ShutdownTimeout         time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
	AdminUsername string
	AdminPassword string

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int

	DeletionWindow        time.Duration
	DeletionTick          time.Duration
	DeletionCommitTimeout time.Duration

	DefaultCurrency string
	DefaultLocale   string

	ClassifierURL           string
	ClassifierTimeout       time.Duration
	ClassifierMinConfidence float64

	LogLevel  slog.Level
	LogFormat string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:         getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAccessTTL:            getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL:           getDuration("JWT_REFRESH_TTL", 168*time.Hour),
		AdminUsername:           getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:           strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		DeletionWindow:          getDuration("DELETION_WINDOW", 5*time.Second),
		DeletionTick:            getDuration("DELETION_TICK", 100*time.Millisecond),
		DeletionCommitTimeout:   getDuration("DELETION_COMMIT_TIMEOUT", 10*time.Second),
		DefaultCurrency:         strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
		DefaultLocale:           getEnv("DEFAULT_LOCALE", "en-US"),
		ClassifierURL:           strings.TrimSpace(os.Getenv("CLASSIFIER_URL")),
		ClassifierTimeout:       getDuration("CLASSIFIER_TIMEOUT", 2*time.Second),
		ClassifierMinConfidence: getFloat("CLASSIFIER_MIN_CONFIDENCE", 0.5),
		LogLevel:                getLevel("LOG_LEVEL", slog.LevelInfo),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}

	if c.DeletionWindow <= 0 {
		return fmt.Errorf("DELETION_WINDOW must be positive")
	}

	if c.DeletionTick <= 0 || c.DeletionTick > c.DeletionWindow {
		return fmt.Errorf("DELETION_TICK must be positive and no longer than DELETION_WINDOW")
	}

	if c.DeletionCommitTimeout <= 0 {
		return fmt.Errorf("DELETION_COMMIT_TIMEOUT must be positive")
	}

	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("DEFAULT_CURRENCY must be a three letter code")
	}

	if c.ClassifierURL != "" {
		u, err := url.Parse(c.ClassifierURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("CLASSIFIER_URL must be an http(s) URL")
		}
	}

	if c.ClassifierMinConfidence < 0 || c.ClassifierMinConfidence > 1 {
		return fmt.Errorf("CLASSIFIER_MIN_CONFIDENCE must be between 0 and 1")
	}

	switch c.LogFormat {
	case "pretty", "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be one of pretty, json, text")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getLevel(key string, fallback slog.Level) slog.Level {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return fallback
	}

	return level
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
