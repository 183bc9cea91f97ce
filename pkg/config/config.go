// Package config loads jsconvert settings from a YAML file, JSCONVERT_*
// environment variables and built-in defaults, in increasing order of
// precedence from defaults to environment.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spicery/jsconvert/pkg/common"
)

const (
	DefaultCatalog    = "python"
	DefaultIndent     = 4
	DefaultDumpFormat = "JSON"
	DefaultManifest   = ".jsconvert/manifest.db"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

var (
	ErrInvalidIndent     = errors.New("indent must be between 1 and 16")
	ErrInvalidWorkers    = errors.New("workers must not be negative")
	ErrInvalidDumpFormat = errors.New("unknown dump format")
	ErrInvalidLogLevel   = errors.New("unknown log level")
	ErrInvalidLogFormat  = errors.New("log format must be text or json")
	ErrEmptyCatalog      = errors.New("catalog must not be empty")
)

// Config is the top-level configuration. Field tags use mapstructure for
// viper unmarshalling.
type Config struct {
	Catalog      string          `mapstructure:"catalog"`
	CatalogFiles []string        `mapstructure:"catalog_files"`
	TokenRules   string          `mapstructure:"token_rules"`
	Indent       int             `mapstructure:"indent"`
	Workers      int             `mapstructure:"workers"`
	CheckTree    bool            `mapstructure:"check_tree"`
	Dump         DumpConfig      `mapstructure:"dump"`
	Manifest     ManifestConfig  `mapstructure:"manifest"`
	Logging      LoggingConfig   `mapstructure:"logging"`
	Telemetry    TelemetryConfig `mapstructure:"telemetry"`
}

type DumpConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Format  string `mapstructure:"format"`
}

// ManifestConfig locates the conversion history database. An empty path
// disables it.
type ManifestConfig struct {
	Path        string `mapstructure:"path"`
	Incremental bool   `mapstructure:"incremental"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
	Headers      string `mapstructure:"headers"`
}

// IndentUnit is the whitespace emitted per nesting level.
func (c *Config) IndentUnit() string {
	return strings.Repeat(" ", c.Indent)
}

// Validate checks the values that cannot be caught by unmarshalling.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Catalog) == "" {
		return ErrEmptyCatalog
	}
	if c.Indent < 1 || c.Indent > 16 {
		return fmt.Errorf("%w: %d", ErrInvalidIndent, c.Indent)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	if !slices.Contains(common.Formats(), strings.ToUpper(c.Dump.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidDumpFormat, c.Dump.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	return nil
}
