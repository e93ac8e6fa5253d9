// Package config loads service configuration from environment variables.
//
// WHY A CONFIG STRUCT (NOT os.Getenv SCATTERED AROUND)?
// Every tunable lives in one struct, parsed once at startup. Components receive
// the values they need through their constructors, never by reading the
// environment themselves. That keeps tests trivial: build a Config literal with
// whatever policy you want and wire it in — no env juggling, no global state.
//
// Parsing is done by caarlos0/env: struct tags declare the variable name and
// default, env.Parse fills the struct. One line per knob, defaults visible at
// a glance.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultJWTSecret is the development fallback signing secret.
//
// IT IS INSECURE BY DEFINITION — it is public, it is in this file. It exists so
// the service starts out of the box for local development. main.go logs a loud
// warning when it is in use; production deployments must set JWT_SECRET to at
// least 32 bytes of randomness (e.g. `openssl rand -hex 32`).
const DefaultJWTSecret = "dev-secret-key-change-in-production"

// Config holds every tunable the service reads at startup.
type Config struct {
	// Port the HTTP server listens on.
	Port int `env:"PORT" envDefault:"8080"`

	// DBPath is the SQLite database file. The parent directory is created if
	// missing. ":memory:" gives an ephemeral database (useful for tests).
	DBPath string `env:"DB_PATH" envDefault:"data/auth.db"`

	// JWTSecret signs and verifies tokens (HMAC-SHA256). Any service that should
	// validate our tokens without calling back here needs the same secret,
	// shared out of band. Changing it invalidates every outstanding token at once.
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-key-change-in-production"`

	// JWTExpirationSeconds is the fixed token TTL. Default 24h.
	JWTExpirationSeconds int `env:"JWT_EXPIRATION_SECONDS" envDefault:"86400"`

	// MinUsernameLength / MinPasswordLength are the registration policy,
	// enforced by the service layer before any storage or hashing work.
	MinUsernameLength int `env:"MIN_USERNAME_LENGTH" envDefault:"3"`
	MinPasswordLength int `env:"MIN_PASSWORD_LENGTH" envDefault:"6"`

	// BcryptCost is the password hashing work factor. 12 is the recommended
	// production floor; tests override it down to 4 to stay fast.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// CORSOrigins is the comma-separated allow-list for cross-origin callers.
	// "*" (the default) allows everything — fine for development only.
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot work. It runs at startup so a bad
// deployment fails immediately instead of on the first request.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be 1-65535, got %d", c.Port))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least 16 characters, got %d", len(c.JWTSecret)))
	}
	if c.JWTExpirationSeconds <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRATION_SECONDS must be positive, got %d", c.JWTExpirationSeconds))
	}
	if c.MinUsernameLength < 1 {
		errs = append(errs, fmt.Errorf("MIN_USERNAME_LENGTH must be at least 1, got %d", c.MinUsernameLength))
	}
	if c.MinPasswordLength < 1 {
		errs = append(errs, fmt.Errorf("MIN_PASSWORD_LENGTH must be at least 1, got %d", c.MinPasswordLength))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		// bcrypt's own accepted range.
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be 4-31, got %d", c.BcryptCost))
	}

	return errors.Join(errs...)
}

// TokenTTL returns the token lifetime as a time.Duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpirationSeconds) * time.Second
}

// UsingDefaultSecret reports whether the insecure development secret is active.
// main.go checks this to log a startup warning.
func (c *Config) UsingDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}
