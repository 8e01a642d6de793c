// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the chat server.
type Config struct {
	Port            string        `env:"PORT"              envDefault:"3000"`
	DirectoryDBPath string        `env:"DIRECTORY_DB_PATH" envDefault:"directory.db"`
	DBDebug         bool          `env:"DB_DEBUG"          envDefault:"false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"  envDefault:"30s"`

	RoomCapacity   int `env:"CHAT_ROOM_CAPACITY"   envDefault:"50"`
	DirectCapacity int `env:"CHAT_DIRECT_CAPACITY" envDefault:"100"`
	StaffCapacity  int `env:"CHAT_STAFF_CAPACITY"  envDefault:"100"`

	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	RateLimitMax       int           `env:"RATE_LIMIT_MAX"       envDefault:"120"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW"    envDefault:"1m"`
	RedisAddr          string        `env:"REDIS_ADDR"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.RoomCapacity <= 0 {
		errs = append(errs, fmt.Errorf("CHAT_ROOM_CAPACITY must be positive, got %d", c.RoomCapacity))
	}
	if c.DirectCapacity <= 0 {
		errs = append(errs, fmt.Errorf("CHAT_DIRECT_CAPACITY must be positive, got %d", c.DirectCapacity))
	}
	if c.StaffCapacity <= 0 {
		errs = append(errs, fmt.Errorf("CHAT_STAFF_CAPACITY must be positive, got %d", c.StaffCapacity))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout))
	}
	if c.RedisAddr != "" {
		if _, _, err := c.RedisHostPort(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RedisHostPort splits RedisAddr into host and port.
func (c Config) RedisHostPort() (string, int, error) {
	host, portStr, err := net.SplitHostPort(c.RedisAddr)
	if err != nil {
		return "", 0, fmt.Errorf("REDIS_ADDR %q: %w", c.RedisAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return "", 0, fmt.Errorf("REDIS_ADDR %q: invalid port", c.RedisAddr)
	}
	return host, port, nil
}
