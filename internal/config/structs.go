package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/fieldmark/internal/mapping"
	"github.com/MeKo-Tech/fieldmark/internal/matcher"
)

// Config represents the complete configuration for the fieldmark
// application. It includes settings for all commands (match, serve) and
// supports loading from configuration files, environment variables, and
// command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Field mapping table
	Mappings MappingsConfig `mapstructure:"mappings" yaml:"mappings" json:"mappings"`

	// Matching pipeline configuration
	Matcher matcher.Config `mapstructure:"matcher" yaml:"matcher" json:"matcher"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// MappingsConfig describes where the field mapping table comes from.
// A file takes precedence over inline rules; the serve command can watch
// the file and republish the table on change.
type MappingsConfig struct {
	File   string               `mapstructure:"file" yaml:"file" json:"file"`
	Watch  bool                 `mapstructure:"watch" yaml:"watch" json:"watch"`
	Fields []mapping.RuleConfig `mapstructure:"fields" yaml:"fields" json:"fields"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxBodyMB       int64  `mapstructure:"max_body_mb" yaml:"max_body_mb" json:"max_body_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Rate limiting
	RateLimitEnabled  bool `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Matcher:  matcher.DefaultConfig(),
		Output: OutputConfig{
			Format: "json",
		},
		Server: ServerConfig{
			Host:              "localhost",
			Port:              8080,
			CORSOrigin:        "*",
			MaxBodyMB:         10,
			TimeoutSec:        30,
			ShutdownTimeout:   10,
			RequestsPerMinute: 120,
			RequestsPerHour:   3600,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	switch strings.ToLower(c.Output.Format) {
	case "", "json", "yaml", "text":
	default:
		return fmt.Errorf("invalid output format: %s", c.Output.Format)
	}

	if c.Matcher.Grouper.RowTolerance < 0 {
		return fmt.Errorf("row tolerance must not be negative: %f", c.Matcher.Grouper.RowTolerance)
	}
	if c.Matcher.MinConfidence < 0 || c.Matcher.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0,1]: %f", c.Matcher.MinConfidence)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxBodyMB <= 0 {
		return fmt.Errorf("max body size must be positive: %d", c.Server.MaxBodyMB)
	}
	return nil
}

// BuildTable compiles the configured mapping table. When a mapping file is
// configured it wins over inline rules.
func (c *Config) BuildTable() (*mapping.Table, error) {
	if c.Mappings.File != "" {
		return mapping.LoadFile(c.Mappings.File)
	}
	return mapping.NewTable(c.Mappings.Fields)
}
