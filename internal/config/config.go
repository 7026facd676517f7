// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

// Package config loads WalletGate configuration from defaults, an
// optional YAML file, and command-line flags, in that order.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full configuration surface.
type Config struct {
	// DatabaseURL is the PostgreSQL DSN for the credential store.
	DatabaseURL string `koanf:"database_url"`

	// ListenAddr is the observability server's bind address.
	ListenAddr string `koanf:"listen_addr"`

	// LogFormat selects "json" or "text" log output.
	LogFormat string `koanf:"log_format"`

	Auth   AuthConfig   `koanf:"auth"`
	Wallet WalletConfig `koanf:"wallet"`
}

// AuthConfig covers credentials, sessions, and rate limits.
type AuthConfig struct {
	MinPasswordLength   int `koanf:"min_password_length"`
	MaxPasswordLength   int `koanf:"max_password_length"`
	HashIterations      int `koanf:"hash_iterations"`
	MaxLoginAttempts    int `koanf:"max_login_attempts"`
	AttemptDecayMinutes int `koanf:"attempt_decay_minutes"`
	SessionTimeoutMins  int `koanf:"session_timeout_minutes"`
	RegisterIPLimit     int `koanf:"register_ip_limit"`

	// RequireLogin gates play behind authentication.
	RequireLogin bool `koanf:"require_login"`
}

// WalletConfig covers the wallet-link handshake.
type WalletConfig struct {
	// Enabled gates the wallet-link flows entirely.
	Enabled bool `koanf:"enabled"`

	// BaseURL of the external wallet provider web app.
	BaseURL string `koanf:"base_url"`

	PollIntervalSeconds int `koanf:"poll_interval_seconds"`
	LinkTimeoutSeconds  int `koanf:"link_timeout_seconds"`

	// RequireWallet gates play behind a connected wallet.
	RequireWallet bool `koanf:"require_wallet"`
}

// AttemptDecay returns the decay window as a duration.
func (c AuthConfig) AttemptDecay() time.Duration {
	return time.Duration(c.AttemptDecayMinutes) * time.Minute
}

// SessionTimeout returns the session lifetime as a duration.
func (c AuthConfig) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMins) * time.Minute
}

// PollInterval returns the poll interval as a duration.
func (c WalletConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// LinkTimeout returns the handshake window as a duration.
func (c WalletConfig) LinkTimeout() time.Duration {
	return time.Duration(c.LinkTimeoutSeconds) * time.Second
}

func defaults() map[string]any {
	return map[string]any{
		"database_url": "",
		"listen_addr":  "127.0.0.1:9100",
		"log_format":   "json",

		"auth.min_password_length":     6,
		"auth.max_password_length":     32,
		"auth.hash_iterations":         65536,
		"auth.max_login_attempts":      5,
		"auth.attempt_decay_minutes":   10,
		"auth.session_timeout_minutes": 1440,
		"auth.register_ip_limit":       3,
		"auth.require_login":           true,

		"wallet.enabled":               false,
		"wallet.base_url":              "http://localhost:3000",
		"wallet.poll_interval_seconds": 5,
		"wallet.link_timeout_seconds":  300,
		"wallet.require_wallet":        false,
	}
}

// Load builds the configuration from defaults, then the YAML file at
// path (skipped when empty), then any flags set on flagSet (may be
// nil). The result is validated.
func Load(path string, flagSet *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_FAILED").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	if flagSet != nil {
		if err := k.Load(posflag.Provider(flagSet, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.Auth.MinPasswordLength < 1 {
		return oops.Code("CONFIG_INVALID").Errorf("auth.min_password_length must be at least 1")
	}
	if c.Auth.MaxPasswordLength < c.Auth.MinPasswordLength {
		return oops.Code("CONFIG_INVALID").
			With("min", c.Auth.MinPasswordLength).
			With("max", c.Auth.MaxPasswordLength).
			Errorf("auth.max_password_length must be >= auth.min_password_length")
	}
	if c.Auth.MaxLoginAttempts < 1 {
		return oops.Code("CONFIG_INVALID").Errorf("auth.max_login_attempts must be at least 1")
	}
	if c.Auth.SessionTimeoutMins < 1 {
		return oops.Code("CONFIG_INVALID").Errorf("auth.session_timeout_minutes must be at least 1")
	}
	if c.Wallet.Enabled {
		if c.Wallet.BaseURL == "" {
			return oops.Code("CONFIG_INVALID").Errorf("wallet.base_url is required when wallet linking is enabled")
		}
		if c.Wallet.PollIntervalSeconds < 1 {
			return oops.Code("CONFIG_INVALID").Errorf("wallet.poll_interval_seconds must be at least 1")
		}
		if c.Wallet.LinkTimeoutSeconds < c.Wallet.PollIntervalSeconds {
			return oops.Code("CONFIG_INVALID").
				With("interval", c.Wallet.PollIntervalSeconds).
				With("timeout", c.Wallet.LinkTimeoutSeconds).
				Errorf("wallet.link_timeout_seconds must be >= wallet.poll_interval_seconds")
		}
	}
	return nil
}
