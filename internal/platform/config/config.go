// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local '.env' file,
when present, is loaded first with 'joho/godotenv'; real environment variables
always win over it.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Supported backends for the user directory.
const (
	DirectoryPostgres = "postgres"
	DirectoryMongo    = "mongo"
	DirectoryMemory   = "memory"
)

// Supported backends for the session store.
const (
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the StyleAI API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"3000"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// User directory backend: postgres, mongo or memory.
	DirectoryDriver string `env:"DIRECTORY_DRIVER" envDefault:"postgres"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Document Database (MongoDB)
	MongoURI      string `env:"MONGODB_URI"      envDefault:"mongodb://127.0.0.1:27017"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"styleAI"`

	// Session store backend: redis or memory.
	SessionDriver string `env:"SESSION_DRIVER" envDefault:"redis"`

	// Key-Value Store (Redis)
	RedisURL string `env:"REDIS_URL" envDefault:"redis://127.0.0.1:6379/0"`

	// Session cookie signing and lifetime
	SessionSecret string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Password hashing work factor
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// Login brute-force protection
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT"  envDefault:"5"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"15m"`

	// Cross-Origin Resource Sharing
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Reverse proxies (IPs or CIDRs) allowed to set X-Real-IP / X-Forwarded-For.
	// Empty means proxy headers are ignored.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	return Parse()
}

// Parse maps the current process environment onto a [Config] and validates it.
func Parse() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces rules that depend on more than one variable.
func (c *Config) validate() error {
	switch c.DirectoryDriver {
	case DirectoryPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required when DIRECTORY_DRIVER=postgres")
		}
	case DirectoryMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGODB_URI is required when DIRECTORY_DRIVER=mongo")
		}
	case DirectoryMemory:
	default:
		return fmt.Errorf("config: unknown DIRECTORY_DRIVER %q", c.DirectoryDriver)
	}

	switch c.SessionDriver {
	case SessionRedis, SessionMemory:
	default:
		return fmt.Errorf("config: unknown SESSION_DRIVER %q", c.SessionDriver)
	}

	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}

	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return errors.New("config: LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}

	for _, value := range c.TrustedProxies {
		if _, err := parseProxy(value); err != nil {
			return fmt.Errorf("config: invalid TRUSTED_PROXIES entry %q: %w", value, err)
		}
	}

	return nil
}

// TrustedProxyPrefixes returns [Config.TrustedProxies] as network prefixes.
// A bare address becomes a single-host prefix.
func (c *Config) TrustedProxyPrefixes() []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, value := range c.TrustedProxies {
		if prefix, err := parseProxy(value); err == nil {
			prefixes = append(prefixes, prefix)
		}
	}
	return prefixes
}

func parseProxy(value string) (netip.Prefix, error) {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "/") {
		prefix, err := netip.ParsePrefix(value)
		if err != nil {
			return netip.Prefix{}, err
		}
		return prefix.Masked(), nil
	}

	addr, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
