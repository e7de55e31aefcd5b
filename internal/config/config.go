package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the keyword/value connection string understood by pgx.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	JWTSecret    string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

type UploadConfig struct {
	Dir       string
	URLPrefix string
}

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	CORSOrigins []string

	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Upload   UploadConfig
}

// Load reads configuration from the environment, loading .env first when present.
func Load() (*Config, error) {
	_ = godotenv.Load() // ok if missing in prod

	redisDB, err := strconv.Atoi(getenv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "72h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		Environment: getenv("APP_ENV", "development"),
		LogLevel:    parseLevel(os.Getenv("LOG_LEVEL")),
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),
		Database: DatabaseConfig{
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			User:     getenv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getenv("DB_NAME", "tci_social"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Session: SessionConfig{
			JWTSecret:    os.Getenv("JWT_SECRET"),
			TTL:          ttl,
			CookieName:   getenv("COOKIE_NAME", "tci_session"),
			CookieSecure: os.Getenv("COOKIE_SECURE") == "true",
		},
		Upload: UploadConfig{
			Dir:       getenv("UPLOAD_DIR", "uploads"),
			URLPrefix: strings.TrimRight(getenv("UPLOAD_URL_PREFIX", "/uploads"), "/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Session.JWTSecret == "" {
		return errors.New("missing required env JWT_SECRET")
	}
	if len(c.Session.JWTSecret) < 32 && c.IsProduction() {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimRight(strings.TrimSpace(p), "/"); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
