// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "walletgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9100", cfg.ListenAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 6, cfg.Auth.MinPasswordLength)
	assert.Equal(t, 32, cfg.Auth.MaxPasswordLength)
	assert.Equal(t, 65536, cfg.Auth.HashIterations)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Auth.AttemptDecay())
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTimeout())
	assert.Equal(t, 3, cfg.Auth.RegisterIPLimit)
	assert.True(t, cfg.Auth.RequireLogin)

	assert.False(t, cfg.Wallet.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Wallet.PollInterval())
	assert.Equal(t, 5*time.Minute, cfg.Wallet.LinkTimeout())
}

func TestLoadFile(t *testing.T) {
	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
database_url: postgres://wg:wg@localhost:5432/walletgate
log_format: text
auth:
  max_login_attempts: 10
  session_timeout_minutes: 60
wallet:
  enabled: true
  base_url: https://wallet.example.com
  poll_interval_seconds: 2
  link_timeout_seconds: 120
`)

		cfg, err := Load(path, nil)
		require.NoError(t, err)

		assert.Equal(t, "postgres://wg:wg@localhost:5432/walletgate", cfg.DatabaseURL)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 10, cfg.Auth.MaxLoginAttempts)
		assert.Equal(t, time.Hour, cfg.Auth.SessionTimeout())
		assert.True(t, cfg.Wallet.Enabled)
		assert.Equal(t, "https://wallet.example.com", cfg.Wallet.BaseURL)
		assert.Equal(t, 2*time.Second, cfg.Wallet.PollInterval())
		assert.Equal(t, 2*time.Minute, cfg.Wallet.LinkTimeout())

		// Untouched keys keep their defaults.
		assert.Equal(t, 6, cfg.Auth.MinPasswordLength)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		assert.Error(t, err)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := writeConfig(t, "auth: [not a map")
		_, err := Load(path, nil)
		assert.Error(t, err)
	})
}

func TestLoadFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log_format", "", "")
	flags.String("listen_addr", "", "")
	require.NoError(t, flags.Parse([]string{"--log_format=text", "--listen_addr=0.0.0.0:9200"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "0.0.0.0:9200", cfg.ListenAddr)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Helper()
		cfg, err := Load("", nil)
		require.NoError(t, err)
		return cfg
	}

	t.Run("password bounds must be ordered", func(t *testing.T) {
		cfg := valid(t)
		cfg.Auth.MinPasswordLength = 20
		cfg.Auth.MaxPasswordLength = 10
		assert.Error(t, cfg.Validate())
	})

	t.Run("attempts must be positive", func(t *testing.T) {
		cfg := valid(t)
		cfg.Auth.MaxLoginAttempts = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("wallet timing checked only when enabled", func(t *testing.T) {
		cfg := valid(t)
		cfg.Wallet.PollIntervalSeconds = 60
		cfg.Wallet.LinkTimeoutSeconds = 30
		require.NoError(t, cfg.Validate())

		cfg.Wallet.Enabled = true
		assert.Error(t, cfg.Validate())
	})

	t.Run("enabled wallet requires a base url", func(t *testing.T) {
		cfg := valid(t)
		cfg.Wallet.Enabled = true
		cfg.Wallet.BaseURL = ""
		assert.Error(t, cfg.Validate())
	})
}
