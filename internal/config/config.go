// Package config loads bongo settings from the environment, an optional
// .env file, and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/bongo/internal/dialect"
)

// EnvPrefix is prepended to every environment key (BONGO_DSN, ...).
const EnvPrefix = "BONGO"

// Keys.
const (
	KeyDriver        = "driver"
	KeyDSN           = "dsn"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
	KeyMaxOpenConns  = "max_open_conns"
	KeyBusyTimeoutMS = "busy_timeout_ms"
	KeyPageSize      = "page_size"
	KeyManifest      = "manifest"
)

// DefaultPageSize is the result limit of Find when none is given.
const DefaultPageSize = 100

// Config holds resolved settings.
type Config struct {
	Driver       string
	DSN          string
	LogLevel     string
	LogFormat    string
	MaxOpenConns int
	BusyTimeout  time.Duration
	PageSize     int
	Manifest     string
}

// Load resolves configuration. Precedence, highest first: environment
// (including values loaded from .env), the config file at path if
// non-empty, defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyDriver, "sqlite3")
	v.SetDefault(KeyDSN, "bongo.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMaxOpenConns, 4)
	v.SetDefault(KeyBusyTimeoutMS, 5000)
	v.SetDefault(KeyPageSize, DefaultPageSize)
	v.SetDefault(KeyManifest, "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Driver:       v.GetString(KeyDriver),
		DSN:          v.GetString(KeyDSN),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
		MaxOpenConns: v.GetInt(KeyMaxOpenConns),
		BusyTimeout:  time.Duration(v.GetInt(KeyBusyTimeoutMS)) * time.Millisecond,
		PageSize:     v.GetInt(KeyPageSize),
		Manifest:     v.GetString(KeyManifest),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that settings are usable.
func (c *Config) Validate() error {
	if _, err := dialect.Parse(c.Driver); err != nil {
		return fmt.Errorf("config %s: %w", KeyDriver, err)
	}
	if c.DSN == "" {
		return fmt.Errorf("config %s: must not be empty", KeyDSN)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config %s: %q must be text or json", KeyLogFormat, c.LogFormat)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("config %s: must be positive, got %d", KeyPageSize, c.PageSize)
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("config %s: must not be negative, got %d", KeyMaxOpenConns, c.MaxOpenConns)
	}
	return nil
}
