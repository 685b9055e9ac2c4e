package server

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds server settings read from the environment
type Config struct {
	Listen      string `env:"GESTURES_LISTEN" envDefault:"localhost:12000"`
	CORS        bool   `env:"GESTURES_CORS" envDefault:"false"`
	MaxSessions int    `env:"GESTURES_MAX_SESSIONS" envDefault:"64"`
	LogCapacity int    `env:"GESTURES_LOG_CAPACITY" envDefault:"8192"`
	PropsFile   string `env:"GESTURES_PROPS_FILE" envDefault:""`
}

// LoadConfig parses server configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}
	if cfg.MaxSessions < 1 {
		return nil, fmt.Errorf("GESTURES_MAX_SESSIONS must be positive, got %d", cfg.MaxSessions)
	}
	return &cfg, nil
}
