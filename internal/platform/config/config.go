// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Policy values (lockout, token lifetimes, quota) are copied
    into per-service policy structs at construction — services never read
    ambient global state, so tests can inject distinct policies per case.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Fieldbook API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) — backs the refresh-token revocation set.
	RedisURL string `env:"REDIS_URL,required"`

	// JWTSecret signs access and refresh tokens (HS256, >= 32 bytes).
	JWTSecret string `env:"JWT_SECRET,required"`

	// Account lockout policy
	LockoutThreshold int           `env:"LOCKOUT_THRESHOLD" envDefault:"5"`
	LockoutDuration  time.Duration `env:"LOCKOUT_DURATION"  envDefault:"15m"`

	// Token lifetimes
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// Anonymous chatbot quota (sliding window)
	AnonRateLimit   int           `env:"ANON_RATE_LIMIT"   envDefault:"5"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"24h"`

	// Cross-Origin Resource Sharing
	FrontendURL  string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the origins allowed to make credentialed
// cross-origin requests: the docs frontend plus any extra comma-separated
// origins from EXTRA_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	origins := []string{c.FrontendURL}

	if c.ExtraOrigins != "" {
		for _, origin := range strings.Split(c.ExtraOrigins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
