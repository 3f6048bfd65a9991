package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome         = "ETHWIRE_HOME"
	EnvOutputFormat = "ETHWIRE_OUTPUT_FORMAT"
	EnvVerbose      = "ETHWIRE_VERBOSE"
	EnvLogLevel     = "ETHWIRE_LOG_LEVEL"
	EnvChainID      = "ETHWIRE_CHAIN_ID"
	EnvStrict       = "ETHWIRE_STRICT_ADDRESSES"
	EnvMetricsFile  = "ETHWIRE_METRICS_FILE"
	EnvNoColor      = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// Ignored unless it parses as a positive integer.
	if v := os.Getenv(EnvChainID); v != "" {
		if id, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64); err == nil && id > 0 {
			cfg.Codec.DefaultChainID = id
		}
	}

	if v := os.Getenv(EnvStrict); v != "" {
		cfg.Codec.StrictAddresses = parseBool(v)
	}

	if v := os.Getenv(EnvMetricsFile); v != "" {
		cfg.Metrics.Textfile = strings.TrimSpace(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
