package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/shiptasks.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// RedisURL enables the Redis-backed event bus. Empty means the
	// in-process bus, which is all a single-instance deployment needs.
	RedisURL string `env:"REDIS_URL"`

	// HostPasscode guards game start and reset.
	HostPasscode string `env:"HOST_PASSCODE" envDefault:"emergency"`

	// PublicURL is the externally reachable base URL, used for the
	// join QR code.
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
