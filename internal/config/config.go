package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// AppConfig holds the server configuration. Values come from an optional
// YAML file (CONFIG_FILE) overridden by environment variables.
type AppConfig struct {
	Port string `yaml:"port"`

	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	// SessionTTL bounds how long a live session record stays in Redis
	// without being touched. Finished games live in Postgres.
	SessionTTL time.Duration `yaml:"session_ttl"`

	HistoryPageSize int `yaml:"history_page_size"`
	BcryptCost      int `yaml:"bcrypt_cost"`
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:            "8080",
		TokenTTL:        7 * 24 * time.Hour,
		SessionTTL:      72 * time.Hour,
		HistoryPageSize: 20,
		BcryptCost:      10,
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("TOKEN_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_TTL: %q", v)
		}
		cfg.TokenTTL = d
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SESSION_TTL: %q", v)
		}
		cfg.SessionTTL = d
	}
	if v := strings.TrimSpace(os.Getenv("HISTORY_PAGE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryPageSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("BCRYPT_COST")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 4 {
			cfg.BcryptCost = n
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}
