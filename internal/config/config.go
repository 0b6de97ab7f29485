package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey string     `env:"GEMINI_API_KEY,notEmpty"`
	Model        string     `env:"NUTRITION_HEROES_MODEL"       envDefault:"gemini-2.5-flash"`
	ThemesFile   string     `env:"NUTRITION_HEROES_THEMES_FILE"`
	Environment  string     `env:"ENVIRONMENT"                  envDefault:"development"`
	LogLevel     slog.Level `env:"LOG_LEVEL"                    envDefault:"info"`
	LogFile      string     `env:"LOG_FILE"                     envDefault:"nutrition-heroes.log"`
	MaxTurns     int        `env:"SIMULATE_MAX_TURNS"           envDefault:"12"`
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxTurns <= 0 {
		return nil, fmt.Errorf("SIMULATE_MAX_TURNS must be positive, got %d", cfg.MaxTurns)
	}
	return &cfg, nil
}
