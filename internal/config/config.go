// Package config loads runtime settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting. API access is optional: with no
// key configured, AI features are disabled but local operations still
// work.
type Config struct {
	APIKey  string `env:"XAI_API_KEY"`
	BaseURL string `env:"XAI_BASE_URL" envDefault:"https://api.x.ai/v1"`
	Model   string `env:"NOVELGROK_MODEL" envDefault:"grok-3"`

	DBPath    string `env:"NOVELGROK_DB" envDefault:"novelgrok.db"`
	Port      int    `env:"NOVELGROK_PORT" envDefault:"8080"`
	AdminKey  string `env:"NOVELGROK_ADMIN_KEY"`
	MaxTokens int    `env:"NOVELGROK_MAX_TOKENS" envDefault:"20000"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
