package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/ethwire/internal/config"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

func TestLoadSave_RoundTrip(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := config.Defaults()
	cfg.Codec.DefaultChainID = 11155111
	cfg.Codec.StrictAddresses = false
	cfg.Metrics.Textfile = filepath.Join(tmpDir, "ethwire.prom")
	cfg.Output.Verbose = true

	require.NoError(t, config.Save(cfg, path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "~/.ethwire", cfg.Home)
	assert.Equal(t, uint64(1), cfg.Codec.DefaultChainID)
	assert.True(t, cfg.Codec.StrictAddresses)
	assert.Equal(t, "auto", cfg.Output.DefaultFormat)
	assert.Equal(t, "auto", cfg.Output.Color)
	assert.False(t, cfg.Output.Verbose)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "~/.ethwire/ethwire.log", cfg.Logging.File)
	assert.Empty(t, cfg.Metrics.Textfile)
	require.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("codec:\n  default_chain_id: 10\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), cfg.Codec.DefaultChainID)
	assert.True(t, cfg.Codec.StrictAddresses)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("codec: [not: valid"), 0o600))

	_, err := config.Load(path)
	require.ErrorIs(t, err, wireerr.ErrConfigInvalid)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"format", "output:\n  default_format: xml\n", "output.default_format"},
		{"log level", "logging:\n  level: trace\n", "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := config.Load(path)
			require.ErrorIs(t, err, wireerr.ErrConfigInvalid)

			var we *wireerr.WireError
			require.ErrorAs(t, err, &we)
			assert.Equal(t, tt.field, we.Details["field"])
		})
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	require.NoError(t, config.Save(config.Defaults(), path))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestGetters(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Metrics.Textfile = "/tmp/m.prom"

	assert.Equal(t, cfg.Home, cfg.GetHome())
	assert.Equal(t, "error", cfg.GetLoggingLevel())
	assert.Equal(t, cfg.Logging.File, cfg.GetLoggingFile())
	assert.Equal(t, "auto", cfg.GetOutputFormat())
	assert.False(t, cfg.IsVerbose())
	assert.Equal(t, uint64(1), cfg.GetDefaultChainID())
	assert.True(t, cfg.IsStrictAddresses())
	assert.Equal(t, "/tmp/m.prom", cfg.GetMetricsTextfile())
}

func TestApplyEnvironment(t *testing.T) {
	cfg := config.Defaults()

	t.Setenv(config.EnvHome, "/custom/home")
	t.Setenv(config.EnvOutputFormat, "JSON")
	t.Setenv(config.EnvVerbose, "true")
	t.Setenv(config.EnvLogLevel, "debug")
	t.Setenv(config.EnvChainID, "0x89")
	t.Setenv(config.EnvStrict, "no")
	t.Setenv(config.EnvMetricsFile, " /var/lib/node_exporter/ethwire.prom ")

	config.ApplyEnvironment(cfg)

	assert.Equal(t, "/custom/home", cfg.Home)
	assert.Equal(t, "json", cfg.Output.DefaultFormat)
	assert.True(t, cfg.Output.Verbose)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, uint64(137), cfg.Codec.DefaultChainID)
	assert.False(t, cfg.Codec.StrictAddresses)
	assert.Equal(t, "/var/lib/node_exporter/ethwire.prom", cfg.Metrics.Textfile)
}

func TestApplyEnvironment_ChainIDInvalidValues(t *testing.T) {
	for _, v := range []string{"0", "-1", "abc", "1.5"} {
		t.Run(v, func(t *testing.T) {
			cfg := config.Defaults()
			t.Setenv(config.EnvChainID, v)
			config.ApplyEnvironment(cfg)
			assert.Equal(t, uint64(1), cfg.Codec.DefaultChainID)
		})
	}
}

func TestApplyEnvironment_NoColor(t *testing.T) {
	// Can't use t.Parallel() with t.Setenv()
	cfg := config.Defaults()

	t.Setenv("NO_COLOR", "1")
	config.ApplyEnvironment(cfg)

	assert.Equal(t, "never", cfg.Output.Color)
}

func TestApplyEnvironment_VerboseValues(t *testing.T) {
	// Can't use t.Parallel() with t.Setenv()
	tests := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"no", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg := config.Defaults()
			t.Setenv(config.EnvVerbose, tt.value)
			config.ApplyEnvironment(cfg)
			assert.Equal(t, tt.expected, cfg.Output.Verbose)
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("/home/user/.ethwire", "config.yaml"), config.Path("/home/user/.ethwire"))
}

func TestDefaultHome(t *testing.T) {
	t.Parallel()
	assert.Contains(t, config.DefaultHome(), ".ethwire")
}

func TestExpandHome(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := config.ExpandHome("~/x/y.log")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "y.log"), got)

	got, err = config.ExpandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}
