// Package config loads runtime settings from the environment, after reading
// .env.local and .env if they exist.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvFiles are read in order; variables already set are never overridden.
var EnvFiles = []string{".env.local", ".env"}

// Config holds every setting of the service and CLI.
type Config struct {
	// Primary provider (Gemini). API_KEY wins over GEMINI_API_KEY.
	APIKey       string `envconfig:"API_KEY"`
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	TextModel    string `envconfig:"TEXT_MODEL" default:"gemini-2.0-flash"`
	ImageModel   string `envconfig:"IMAGE_MODEL" default:"gemini-2.0-flash-preview-image-generation"`
	Images       bool   `envconfig:"IMAGES" default:"true"`

	// Backup providers (OpenRouter). No key means primary only.
	OpenRouterAPIKey string   `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterURL    string   `envconfig:"OPENROUTER_URL" default:"https://openrouter.ai/api/v1"`
	BackupModels     []string `envconfig:"BACKUP_MODELS" default:"google/gemini-2.0-flash-exp:free,google/gemma-3-27b-it:free,mistralai/mistral-small-3.1-24b-instruct:free,meta-llama/llama-3.3-70b-instruct:free,deepseek/deepseek-chat-v3-0324:free,qwen/qwen-2.5-72b-instruct:free,openrouter/auto:free"`
	Referer          string   `envconfig:"HTTP_REFERER" default:"http://localhost:8080"`
	AppTitle         string   `envconfig:"APP_TITLE" default:"The Daily Decree"`

	PrimaryTimeout time.Duration `envconfig:"PRIMARY_TIMEOUT" default:"35s"`
	BackupTimeout  time.Duration `envconfig:"BACKUP_TIMEOUT" default:"40s"`
	ImageTimeout   time.Duration `envconfig:"IMAGE_TIMEOUT" default:"60s"`

	// Shared outbound request budget.
	RateLimit  int           `envconfig:"RATE_LIMIT" default:"15"`
	RateWindow time.Duration `envconfig:"RATE_WINDOW" default:"60s"`

	// Storage: "sqlite" or "redis".
	Store    string `envconfig:"STORE" default:"sqlite"`
	DBPath   string `envconfig:"DB_PATH" default:"data/decree.db"`
	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	Port        int    `envconfig:"PORT" default:"8080"`
	AdminKey    string `envconfig:"DECREE_ADMIN_KEY"`
	CORSOrigins string `envconfig:"CORS_ORIGINS"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the env files and then the environment.
func Load() (*Config, error) {
	for _, f := range EnvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case "sqlite", "redis", "none":
	default:
		return fmt.Errorf("STORE must be sqlite, redis or none, got %q", c.Store)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("RATE_WINDOW must be positive, got %s", c.RateWindow)
	}
	return nil
}

// PrimaryKey is the Gemini key, or "" if none is configured.
func (c *Config) PrimaryKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return c.GeminiAPIKey
}

// Origins splits CORSOrigins.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
