// Package config provides configuration management for ethwire.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/ethwire/internal/fileutil"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version" default:"1"`
	Home    string        `yaml:"home" default:"~/.ethwire"`
	Codec   CodecConfig   `yaml:"codec"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// CodecConfig defines defaults applied when building transactions from flags.
type CodecConfig struct {
	DefaultChainID  uint64 `yaml:"default_chain_id" default:"1"`
	StrictAddresses bool   `yaml:"strict_addresses" default:"true"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" default:"auto"`
	Color         string `yaml:"color" default:"auto"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" default:"error"`
	File  string `yaml:"file" default:"~/.ethwire/ethwire.log"`
}

// MetricsConfig defines where codec metrics are written. An empty textfile
// disables the export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Load reads configuration from the specified file on top of the defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, wireerr.Wrap(wireerr.WithDetails(wireerr.ErrConfigInvalid, map[string]string{"path": path}), "%s", err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file, replacing any previous
// contents atomically.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.DefaultFormat) {
	case "auto", "text", "json":
	default:
		return wireerr.WithDetails(wireerr.ErrConfigInvalid, map[string]string{
			"field": "output.default_format",
			"value": c.Output.DefaultFormat,
		})
	}
	switch strings.ToLower(c.Logging.Level) {
	case "off", "none", "error", "debug":
	default:
		return wireerr.WithDetails(wireerr.ErrConfigInvalid, map[string]string{
			"field": "logging.level",
			"value": c.Logging.Level,
		})
	}
	return nil
}

// GetHome returns the ethwire home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// GetDefaultChainID returns the chain ID used when a command omits one.
func (c *Config) GetDefaultChainID() uint64 {
	return c.Codec.DefaultChainID
}

// IsStrictAddresses reports whether mixed-case addresses must carry a valid
// EIP-55 checksum.
func (c *Config) IsStrictAddresses() bool {
	return c.Codec.StrictAddresses
}

// GetMetricsTextfile returns the Prometheus textfile path, or "".
func (c *Config) GetMetricsTextfile() string {
	return c.Metrics.Textfile
}

// DefaultHome returns the default ethwire home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ethwire"
	}
	return filepath.Join(home, ".ethwire")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}
