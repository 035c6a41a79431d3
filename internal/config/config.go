package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Event broker configuration
	Broker BrokerConfig

	// Streaming configuration
	Stream StreamConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// BrokerConfig holds event broker configuration
type BrokerConfig struct {
	URL            string
	Subject        string
	PublishTimeout time.Duration
	ReconnectWait  time.Duration
}

// StreamConfig holds streaming session configuration
type StreamConfig struct {
	HeartbeatInterval time.Duration
	SendBuffer        int
	AllowedOrigins    []string
	ReadBufferSize    int
	WriteBufferSize   int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvOrDefault("SERVER_PORT", ":8080"),
			ReadTimeout: getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			// Zero write timeout keeps long-lived streaming responses open.
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 0),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			ConnMaxLifetime: getDurationOrDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getDurationOrDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Broker: BrokerConfig{
			URL:            getEnvOrDefault("BROKER_URL", "nats://localhost:4222"),
			Subject:        getEnvOrDefault("BROKER_SUBJECT", "tickets.updates"),
			PublishTimeout: getDurationOrDefault("BROKER_PUBLISH_TIMEOUT", 2*time.Second),
			ReconnectWait:  getDurationOrDefault("BROKER_RECONNECT_WAIT", 2*time.Second),
		},
		Stream: StreamConfig{
			HeartbeatInterval: getDurationOrDefault("STREAM_HEARTBEAT_INTERVAL", 30*time.Second),
			SendBuffer:        getIntOrDefault("STREAM_SEND_BUFFER", 64),
			AllowedOrigins:    getStringSliceOrDefault("STREAM_ALLOWED_ORIGINS", []string{}),
			ReadBufferSize:    getIntOrDefault("STREAM_READ_BUFFER_SIZE", 1024),
			WriteBufferSize:   getIntOrDefault("STREAM_WRITE_BUFFER_SIZE", 1024),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 10),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "ticket-stream"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Broker.Subject == "" {
		errs = append(errs, "BROKER_SUBJECT cannot be empty")
	}
	if c.Broker.PublishTimeout <= 0 {
		errs = append(errs, "BROKER_PUBLISH_TIMEOUT must be positive")
	}
	if c.Stream.HeartbeatInterval <= 0 {
		errs = append(errs, "STREAM_HEARTBEAT_INTERVAL must be positive")
	}
	if c.Stream.SendBuffer < 1 {
		errs = append(errs, "STREAM_SEND_BUFFER must be at least 1")
	}

	if c.App.Environment == "production" && len(c.Stream.AllowedOrigins) == 0 {
		errs = append(errs, "STREAM_ALLOWED_ORIGINS must be set in production")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// String returns a printable form with the database credentials redacted.
func (c *Config) String() string {
	return fmt.Sprintf("Config{App:%s Env:%s Port:%s Broker:%s Subject:%s DB:%s}",
		c.App.Name, c.App.Environment, c.Server.Port, c.Broker.URL, c.Broker.Subject, redactURL(c.Database.URL))
}

func redactURL(url string) string {
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at == -1 || scheme == -1 || at < scheme {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
