package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultHistory  = "history.json"
	DefaultLogLevel = "info"
)

type Config struct {
	// History is a path or URL on any registered filesystem.
	History  string `toml:"history" validate:"required"`
	LogLevel string `toml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Tasks    []Task `toml:"tasks" validate:"required,min=1,dive"`
}

// Task moves matching files from Source to Target on a cron schedule.
// Source and Target are filesystem URLs such as sftp://host/in or
// hdfs://namenode:8020/landing.
type Task struct {
	Name            string `toml:"name" validate:"required"`
	Cron            string `toml:"cron" validate:"required"`
	Source          string `toml:"source" validate:"required"`
	SourceRegex     string `toml:"source_regex"`
	Target          string `toml:"target" validate:"required"`
	RetentionDays   int    `toml:"retention_days" validate:"gte=0"`   // delete targets transferred longer ago
	SourceNewerDays int    `toml:"source_newer_days" validate:"gte=0"` // only consider recently modified sources
	SourceAuth      *Auth  `toml:"source_auth,omitempty"`
	TargetAuth      *Auth  `toml:"target_auth,omitempty"`
}

// Auth overrides the credentials in a task URL.
type Auth struct {
	User     string `toml:"user"`
	Password string `toml:"password"`
	KeyFile  string `toml:"key_file"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes TOML, fills in defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ApplyDefaults(cfg *Config) {
	if cfg.History == "" {
		cfg.History = DefaultHistory
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}
