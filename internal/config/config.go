// Package config loads the front end's settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port    int    `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE"`

	Backend BackendConfig
	Session SessionConfig
	Visits  VisitsConfig
	Admin   AdminConfig
	Log     LogConfig

	NatsURL       string `env:"NATS_URL"`
	NatsSubject   string `env:"NATS_SUBJECT" envDefault:"portfolio.contact"`
	ZipkinAddress string `env:"ZIPKIN_ADDRESS"`
}

type BackendConfig struct {
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:5000"`
	// Timeout of zero means requests wait indefinitely.
	Timeout         time.Duration `env:"BACKEND_TIMEOUT" envDefault:"0s"`
	UniformFallback bool          `env:"UNIFORM_FALLBACK" envDefault:"false"`
}

type SessionConfig struct {
	MemcacheURL string        `env:"MEM_URL"`
	TTL         time.Duration `env:"SESSION_TTL" envDefault:"2h"`
}

type VisitsConfig struct {
	DatabasePath string        `env:"DATABASE_PATH" envDefault:"portfolio.db"`
	Retention    time.Duration `env:"VISIT_RETENTION" envDefault:"8760h"`
}

type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME" envDefault:"admin"`
	Password string `env:"ADMIN_PASSWORD"`
	Secret   string `env:"ADMIN_SECRET"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads a .env file when one exists, then parses the environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level. Unknown values mean info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
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
