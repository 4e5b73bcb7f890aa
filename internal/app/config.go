package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	RealmPath string // directory of card directories
	RealmURL  string // URL the realm's cards live under
	OutDir    string // compiled modules are written here when set

	LogFormat string
	LogLevel  string
	CacheSize int
}

// NewConfig validates cfg and normalizes the realm URL to end with a slash.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RealmPath == "" {
		return nil, errors.New("RealmPath is a required configuration field and cannot be empty")
	}
	if cfg.RealmURL == "" {
		return nil, errors.New("RealmURL is a required configuration field and cannot be empty")
	}
	u, err := url.Parse(cfg.RealmURL)
	if err != nil {
		return nil, fmt.Errorf("invalid realm URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("invalid realm URL %q: must be absolute", cfg.RealmURL)
	}
	if !strings.HasSuffix(cfg.RealmURL, "/") {
		cfg.RealmURL += "/"
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("invalid cache size %d: must not be negative", cfg.CacheSize)
	}

	return &cfg, nil
}
