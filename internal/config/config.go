// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package config loads PetNova settings. Sources, lowest precedence first:
// built-in defaults, a YAML file, PETNOVA_* environment variables (a .env
// file is read into the environment first) and command-line flags.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/petnova/petnova/internal/token"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "PETNOVA_"

// Config is the full service configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Token    TokenConfig    `koanf:"token"`
	Log      LogConfig      `koanf:"log"`
	Migrate  MigrateConfig  `koanf:"migrate"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// LoginRate is the number of login attempts allowed per client IP per minute.
	LoginRate int `koanf:"login_rate"`
	// TrustedProxy takes client IPs from forwarding headers.
	TrustedProxy bool `koanf:"trusted_proxy"`
}

// MetricsConfig configures the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig points at PostgreSQL.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// TokenConfig holds the bearer token settings.
type TokenConfig struct {
	Key      string        `koanf:"key"`
	Issuer   string        `koanf:"issuer"`
	Audience string        `koanf:"audience"`
	Lifetime time.Duration `koanf:"lifetime"`
}

// LogConfig selects the log output format.
type LogConfig struct {
	Format string `koanf:"format"`
}

// MigrateConfig controls schema migration at startup.
type MigrateConfig struct {
	Auto bool `koanf:"auto"`
}

// Defaults returns the built-in values.
func Defaults() map[string]any {
	return map[string]any{
		"http.addr":             ":8080",
		"http.request_timeout":  "30s",
		"http.shutdown_timeout": "10s",
		"http.cors_origins":     []string{"*"},
		"http.login_rate":       10,
		"http.trusted_proxy":    false,
		"metrics.addr":          "127.0.0.1:9100",
		"database.url":          "",
		"token.key":             "",
		"token.issuer":          "petnova",
		"token.audience":        "petnova-api",
		"token.lifetime":        "1h",
		"log.format":            "json",
		"migrate.auto":          false,
	}
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"addr":           "http.addr",
	"metrics-addr":   "metrics.addr",
	"database-url":   "database.url",
	"log-format":     "log.format",
	"auto-migrate":   "migrate.auto",
	"token-lifetime": "token.lifetime",
}

// Options says where Load looks.
type Options struct {
	// File is an optional YAML file. A missing file is an error when set.
	File string
	// EnvFile is read into the process environment when it exists.
	// Variables already set win.
	EnvFile string
	// Flags are applied last. Only flags named in FlagKeys are read.
	Flags *pflag.FlagSet
}

// Load builds a Config from every source. It does not validate.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "file").With("path", opts.File).Wrap(err)
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "dotenv").With("path", opts.EnvFile).Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "unmarshal").Wrap(err)
	}
	return &cfg, nil
}

// envValue turns PETNOVA_HTTP_REQUEST_TIMEOUT into http.request_timeout.
// Only the first underscore separates section from key. List values are
// comma separated.
func envValue(name, value string) (string, any) {
	key := strings.Replace(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_", ".", 1)
	if key == "http.cors_origins" {
		return key, strings.Split(value, ",")
	}
	return key, value
}

// Validate checks everything `serve` needs.
func (c *Config) Validate() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	switch {
	case c.HTTP.Addr == "":
		return invalid("http.addr", "listen address is required")
	case c.HTTP.RequestTimeout <= 0:
		return invalid("http.request_timeout", "must be positive")
	case c.HTTP.ShutdownTimeout <= 0:
		return invalid("http.shutdown_timeout", "must be positive")
	case c.HTTP.LoginRate <= 0:
		return invalid("http.login_rate", "must be positive")
	case c.Log.Format != "json" && c.Log.Format != "text":
		return invalid("log.format", "must be json or text")
	}
	if err := c.TokenConfig().Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "token").Wrap(err)
	}
	return nil
}

// ValidateDatabase checks the settings commands that only touch the
// database need.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return invalid("database.url", "database url is required")
	}
	return nil
}

// TokenConfig converts the token settings for token.NewService.
func (c *Config) TokenConfig() token.Config {
	return token.Config{
		SigningKey: []byte(c.Token.Key),
		Issuer:     c.Token.Issuer,
		Audience:   c.Token.Audience,
		Lifetime:   c.Token.Lifetime,
	}
}

func invalid(key, msg string) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf("%s: %s", key, msg)
}
