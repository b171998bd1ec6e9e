// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/pkg/errutil"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/authgate")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, uint64(60), cfg.ConnectAttempts)
	assert.Equal(t, 5*time.Second, cfg.ConnectInterval)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := config.Load("", nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/authgate")

	_, err := config.Load("", nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_PortEnvSetsAddr(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9100")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Addr)
}

func TestLoad_PrefixedEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTHGATE_CONNECT_ATTEMPTS", "3")
	t.Setenv("AUTHGATE_CONNECT_INTERVAL", "250ms")
	t.Setenv("AUTHGATE_LOG_FORMAT", "text")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cfg.ConnectAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.ConnectInterval)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_YAMLFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "authgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":8080\"\ntoken_ttl: 30m\n"), 0o600))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
}

func TestLoad_MissingFileFails(t *testing.T) {
	setRequiredEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestLoad_FlagsWinOverEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9100")

	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.String("addr", ":4000", "listen address")
	require.NoError(t, fs.Parse([]string{"--addr", ":7000"}))

	cfg, err := config.Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			DatabaseURL:     "postgres://localhost/db",
			JWTSecret:       "s",
			Addr:            ":4000",
			TokenTTL:        time.Hour,
			ConnectAttempts: 60,
			ConnectInterval: 5 * time.Second,
			LogFormat:       "json",
		}
	}

	t.Run("zero attempts", func(t *testing.T) {
		cfg := base()
		cfg.ConnectAttempts = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive interval", func(t *testing.T) {
		cfg := base()
		cfg.ConnectInterval = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("unknown log format", func(t *testing.T) {
		cfg := base()
		cfg.LogFormat = "xml"
		require.Error(t, cfg.Validate())
	})

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, base().Validate())
	})
}
