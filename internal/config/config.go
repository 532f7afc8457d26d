package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Host           string        `env:"HOST" envDefault:"0.0.0.0"`
	Port           int           `env:"PORT" envDefault:"3000"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool          `env:"LOG_DEVELOPMENT" envDefault:"false"`
	TurnDuration   time.Duration `env:"DUEL_TURN_DURATION" envDefault:"15s"`
	CountdownTick  time.Duration `env:"DUEL_COUNTDOWN_INTERVAL" envDefault:"1s"`
	PingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"20s"`
	WriteTimeout   time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"3s"`
	OriginPatterns []string      `env:"WS_ORIGIN_PATTERNS" envSeparator:","`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file, then the process environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	durations := map[string]time.Duration{
		"DUEL_TURN_DURATION":      c.TurnDuration,
		"DUEL_COUNTDOWN_INTERVAL": c.CountdownTick,
		"WS_WRITE_TIMEOUT":        c.WriteTimeout,
		"SHUTDOWN_TIMEOUT":        c.ShutdownGrace,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
