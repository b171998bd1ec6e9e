// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

// Package config loads service configuration from defaults, an
// optional YAML file, environment variables, and command-line flags,
// in that order of precedence (later sources win).
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// envPrefix scopes tunable settings. The two required secrets are
// read from their conventional unprefixed names as well.
const envPrefix = "AUTHGATE_"

// Config holds everything the serve command needs to run.
type Config struct {
	DatabaseURL     string        `koanf:"database_url"`
	JWTSecret       string        `koanf:"jwt_secret"`
	Addr            string        `koanf:"addr"`
	TokenTTL        time.Duration `koanf:"token_ttl"`
	ConnectAttempts uint64        `koanf:"connect_attempts"`
	ConnectInterval time.Duration `koanf:"connect_interval"`
	LogFormat       string        `koanf:"log_format"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"addr":             ":4000",
		"token_ttl":        time.Hour,
		"connect_attempts": uint64(60),
		"connect_interval": 5 * time.Second,
		"log_format":       "json",
	}
}

// Load assembles a Config. path names an optional YAML file; an empty
// path skips the file layer, a non-empty path must exist. flags may be
// nil when the caller has no flag set to merge.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "loading defaults")
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("path", path).
				Wrapf(err, "loading config file")
		}
	}

	// DATABASE_URL, JWT_SECRET, and PORT are conventionally unprefixed.
	if err := k.Load(env.Provider(".", env.Opt{
		EnvironFunc: plainEnviron,
		TransformFunc: func(key, value string) (string, any) {
			if key == "PORT" {
				return "addr", ":" + value
			}
			return strings.ToLower(key), value
		},
	}), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "loading environment")
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return key, value
		},
	}), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "loading environment")
	}

	if flags != nil {
		p := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, interface{}) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(p, nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "loading flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "unmarshaling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// plainEnviron filters the process environment down to the unprefixed
// variables the service recognizes.
func plainEnviron() []string {
	var out []string
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		switch name {
		case "DATABASE_URL", "JWT_SECRET", "PORT":
			out = append(out, kv)
		}
	}
	return out
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").New("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return oops.Code("CONFIG_INVALID").New("JWT_SECRET is required")
	}
	if c.Addr == "" {
		return oops.Code("CONFIG_INVALID").New("listen address must not be empty")
	}
	if c.ConnectAttempts == 0 {
		return oops.Code("CONFIG_INVALID").New("connect_attempts must be positive")
	}
	if c.ConnectInterval <= 0 {
		return oops.Code("CONFIG_INVALID").New("connect_interval must be positive")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			New("log_format must be json or text")
	}
	return nil
}
