package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable, e.g. ATTENDANCE_SERVER_PORT
const EnvPrefix = "ATTENDANCE"

// Store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the complete application configuration
type Config struct {
	Server  ServerConfig  `envconfig:"SERVER"`
	Store   StoreConfig   `envconfig:"STORE"`
	Redis   RedisConfig   `envconfig:"REDIS"`
	Logging LoggingConfig `envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `envconfig:"PORT" default:"5000"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	GinMode         string        `envconfig:"GIN_MODE" default:"release"`
}

// StoreConfig selects where analyzed datasets are kept
type StoreConfig struct {
	Backend    string        `envconfig:"BACKEND" default:"memory"`
	DatasetTTL time.Duration `envconfig:"DATASET_TTL" default:"0"` // 0 keeps datasets forever
}

// RedisConfig is used when the store backend is redis
type RedisConfig struct {
	Addr     string `envconfig:"ADDR" default:"127.0.0.1:6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
	Output string `envconfig:"OUTPUT" default:"stdout"` // stdout, stderr or a file path
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return errors.New("at least one allowed origin is required")
	}

	c.Store.Backend = strings.ToLower(c.Store.Backend)
	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis address is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.DatasetTTL < 0 {
		return fmt.Errorf("dataset TTL must not be negative, got %s", c.Store.DatasetTTL)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
