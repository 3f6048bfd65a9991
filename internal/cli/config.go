package cli

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ethwire/internal/config"
	"github.com/mrz1836/ethwire/internal/output"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration",
	GroupID: groupConfig,
	Long: `View and modify ethwire configuration settings stored in
<home>/config.yaml.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.ethwire/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  ethwire config init
  ethwire config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, after environment variables and
flags have been applied.`,
	Example: `  ethwire config show
  ethwire config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its dotted path.

Known paths: home, codec.default_chain_id, codec.strict_addresses,
output.default_format, output.color, output.verbose, logging.level,
logging.file, metrics.textfile.`,
	Example: `  ethwire config get codec.default_chain_id
  ethwire config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its dotted path.

The configuration file is updated immediately. Environment overrides are not
written back.`,
	Example: `  ethwire config set codec.default_chain_id 11155111
  ethwire config set output.default_format json
  ethwire config set metrics.textfile ~/.ethwire/ethwire.prom`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

// configPathCmd prints the configuration file path.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configPathCmd = &cobra.Command{
	Use:     "path",
	Short:   "Print the configuration file path",
	Long:    `Print the path of the configuration file for the active home directory.`,
	Example: `  ethwire config path --home /tmp/ethwire`,
	Args:    cobra.NoArgs,
	RunE:    runConfigPath,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

// configKey binds a dotted path to its accessors.
type configKey struct {
	path string
	get  func(c *config.Config) string
	set  func(c *config.Config, v string) error
}

//nolint:gochecknoglobals // static lookup table
var configKeys = []configKey{
	{
		path: "home",
		get:  func(c *config.Config) string { return c.Home },
		set:  func(c *config.Config, v string) error { c.Home = v; return nil },
	},
	{
		path: "codec.default_chain_id",
		get:  func(c *config.Config) string { return strconv.FormatUint(c.Codec.DefaultChainID, 10) },
		set: func(c *config.Config, v string) error {
			id, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64)
			if err != nil || id == 0 {
				return invalidValue("codec.default_chain_id", v, "a positive integer")
			}
			c.Codec.DefaultChainID = id
			return nil
		},
	},
	{
		path: "codec.strict_addresses",
		get:  func(c *config.Config) string { return strconv.FormatBool(c.Codec.StrictAddresses) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return invalidValue("codec.strict_addresses", v, "true or false")
			}
			c.Codec.StrictAddresses = b
			return nil
		},
	},
	{
		path: "output.default_format",
		get:  func(c *config.Config) string { return c.Output.DefaultFormat },
		set: func(c *config.Config, v string) error {
			return setEnum(&c.Output.DefaultFormat, "output.default_format", v, "auto", "text", "json")
		},
	},
	{
		path: "output.color",
		get:  func(c *config.Config) string { return c.Output.Color },
		set: func(c *config.Config, v string) error {
			return setEnum(&c.Output.Color, "output.color", v, "auto", "always", "never")
		},
	},
	{
		path: "output.verbose",
		get:  func(c *config.Config) string { return strconv.FormatBool(c.Output.Verbose) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return invalidValue("output.verbose", v, "true or false")
			}
			c.Output.Verbose = b
			return nil
		},
	},
	{
		path: "logging.level",
		get:  func(c *config.Config) string { return c.Logging.Level },
		set: func(c *config.Config, v string) error {
			return setEnum(&c.Logging.Level, "logging.level", v, "off", "error", "debug")
		},
	},
	{
		path: "logging.file",
		get:  func(c *config.Config) string { return c.Logging.File },
		set:  func(c *config.Config, v string) error { c.Logging.File = v; return nil },
	},
	{
		path: "metrics.textfile",
		get:  func(c *config.Config) string { return c.Metrics.Textfile },
		set:  func(c *config.Config, v string) error { c.Metrics.Textfile = v; return nil },
	},
}

func lookupConfigKey(path string) (configKey, error) {
	for _, k := range configKeys {
		if k.path == path {
			return k, nil
		}
	}
	return configKey{}, wireerr.WithSuggestion(
		wireerr.Detail(wireerr.ErrUnknownConfigKey, "path", path),
		"run 'ethwire config show' to list the known paths",
	)
}

func invalidValue(path, value, valid string) error {
	return wireerr.WithDetails(wireerr.ErrConfigInvalid, map[string]string{
		"field": path,
		"value": value,
		"valid": valid,
	})
}

func setEnum(dst *string, path, value string, valid ...string) error {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, ok := range valid {
		if v == ok {
			*dst = v
			return nil
		}
	}
	return invalidValue(path, value, strings.Join(valid, ", "))
}

// activeConfig returns the loaded configuration, or defaults when the command
// runs outside Execute.
func activeConfig() *config.Config {
	if cfg != nil {
		return cfg
	}
	return config.Defaults()
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	c := activeConfig()
	home, err := config.ExpandHome(c.Home)
	if err != nil {
		return wireerr.Wrap(wireerr.ErrGeneral, "resolving home: %v", err)
	}
	configPath := config.Path(home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return wireerr.WithSuggestion(
			wireerr.Detail(wireerr.ErrGeneral, "path", configPath),
			"configuration already exists, use --force to overwrite",
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = c.Home
	if err := config.Save(defaultCfg, configPath); err != nil {
		return wireerr.Wrap(wireerr.ErrGeneral, "writing config file: %v", err)
	}

	GetCmdContext(cmd).debug("config initialized at %s", configPath)

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - codec.default_chain_id: Chain ID used when a command omits one")
	outln(w, "  - codec.strict_addresses: Require valid EIP-55 checksums on mixed-case input")
	outln(w, "  - output.default_format: Output format (auto/text/json)")
	outln(w, "  - logging.level: Log level (off/error/debug)")
	outln(w, "  - metrics.textfile: Prometheus textfile written after each command")

	return nil
}

// configView is the JSON shape of config show.
type configView struct {
	Version int    `json:"version"`
	Home    string `json:"home"`
	Codec   struct {
		DefaultChainID  uint64 `json:"default_chain_id"`
		StrictAddresses bool   `json:"strict_addresses"`
	} `json:"codec"`
	Output struct {
		DefaultFormat string `json:"default_format"`
		Color         string `json:"color"`
		Verbose       bool   `json:"verbose"`
	} `json:"output"`
	Logging struct {
		Level string `json:"level"`
		File  string `json:"file"`
	} `json:"logging"`
	Metrics struct {
		Textfile string `json:"textfile"`
	} `json:"metrics"`

	cfg *config.Config
}

func newConfigView(c *config.Config) configView {
	v := configView{Version: c.Version, Home: c.Home, cfg: c}
	v.Codec.DefaultChainID = c.Codec.DefaultChainID
	v.Codec.StrictAddresses = c.Codec.StrictAddresses
	v.Output.DefaultFormat = c.Output.DefaultFormat
	v.Output.Color = c.Output.Color
	v.Output.Verbose = c.Output.Verbose
	v.Logging.Level = c.Logging.Level
	v.Logging.File = c.Logging.File
	v.Metrics.Textfile = c.Metrics.Textfile
	return v
}

func (v configView) Text() string {
	var f output.Fields
	for _, k := range configKeys {
		f.Add(k.path, k.get(v.cfg))
	}
	return f.Text()
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	return GetCmdContext(cmd).printer(cmd).Print(newConfigView(activeConfig()))
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	k, err := lookupConfigKey(args[0])
	if err != nil {
		return err
	}
	outln(cmd.OutOrStdout(), k.get(activeConfig()))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, value := args[0], args[1]
	k, err := lookupConfigKey(path)
	if err != nil {
		return err
	}

	c := activeConfig()
	home, err := config.ExpandHome(c.Home)
	if err != nil {
		return wireerr.Wrap(wireerr.ErrGeneral, "resolving home: %v", err)
	}
	configPath := config.Path(home)

	// Start from the file, not the effective config, so environment
	// overrides are not persisted.
	current, err := config.Load(configPath)
	switch {
	case os.IsNotExist(err):
		current = config.Defaults()
		current.Home = c.Home
	case err != nil:
		return err
	}

	if err := k.set(current, value); err != nil {
		return err
	}
	if err := config.Save(current, configPath); err != nil {
		return wireerr.Wrap(wireerr.ErrGeneral, "saving config: %v", err)
	}

	GetCmdContext(cmd).debug("config %s set in %s", path, configPath)
	out(cmd.OutOrStdout(), "Set %s = %s\n", path, k.get(current))
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	home, err := config.ExpandHome(activeConfig().Home)
	if err != nil {
		return wireerr.Wrap(wireerr.ErrGeneral, "resolving home: %v", err)
	}
	outln(cmd.OutOrStdout(), config.Path(home))
	return nil
}
