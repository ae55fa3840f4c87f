package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Storage   string
	Auth      AuthConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL      string // Full PostgreSQL URL
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string
	Port int
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig enables bearer-token auth when both the secret and password hash are set.
type AuthConfig struct {
	JWTSecret    string
	PasswordHash string
	TokenTTL     time.Duration
}

// Enabled reports whether write endpoints require a token.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" && a.PasswordHash != ""
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// RateLimitConfig caps request throughput per client address. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads .env files if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env", "config/local.env")
	return FromEnv()
}

// FromEnv reads configuration from environment variables and validates it.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	loaders := []struct {
		name string
		load func() error
	}{
		{"database", cfg.loadDatabase},
		{"server", cfg.loadServer},
		{"auth", cfg.loadAuth},
		{"rate limit", cfg.loadRateLimit},
	}
	for _, l := range loaders {
		if err := l.load(); err != nil {
			return nil, fmt.Errorf("load %s config: %w", l.name, err)
		}
	}

	cfg.Storage = strings.ToLower(getEnvOrDefault("STORAGE", StoragePostgres))
	cfg.loadCORS()
	cfg.loadLogging()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadDatabase() error {
	c.Database.URL = os.Getenv("DATABASE_URL")
	if c.Database.URL != "" {
		return nil
	}

	c.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	c.Database.User = os.Getenv("DB_USER")
	c.Database.Password = os.Getenv("DB_PASSWORD")
	c.Database.Name = os.Getenv("DB_NAME")
	c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	c.Database.Port = port

	if c.Database.User != "" && c.Database.Name != "" {
		c.Database.URL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
			c.Database.SSLMode,
		)
	}
	return nil
}

func (c *Config) loadServer() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")
	return nil
}

func (c *Config) loadAuth() error {
	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.PasswordHash = os.Getenv("AUTH_PASSWORD_HASH")

	ttl, err := time.ParseDuration(getEnvOrDefault("TOKEN_TTL", "12h"))
	if err != nil {
		return fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	c.Auth.TokenTTL = ttl
	return nil
}

func (c *Config) loadRateLimit() error {
	rps, err := strconv.ParseFloat(getEnvOrDefault("RATE_LIMIT_RPS", "0"), 64)
	if err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnvOrDefault("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	c.RateLimit.RPS = rps
	c.RateLimit.Burst = burst
	return nil
}

func (c *Config) loadCORS() {
	c.CORS.AllowedOrigins = parseList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173"))
}

func (c *Config) loadLogging() {
	c.Logging.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	c.Logging.Format = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage {
	case StoragePostgres:
		if c.Database.URL == "" {
			problems = append(problems, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
		}
	case StorageMemory:
	default:
		problems = append(problems, "STORAGE must be one of: postgres, memory")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}

	if (c.Auth.JWTSecret == "") != (c.Auth.PasswordHash == "") {
		problems = append(problems, "JWT_SECRET and AUTH_PASSWORD_HASH must be set together")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL must be positive")
	}

	if c.RateLimit.RPS < 0 {
		problems = append(problems, "RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		problems = append(problems, "RATE_LIMIT_BURST must be at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
