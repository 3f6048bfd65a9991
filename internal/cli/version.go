package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/ethwire/internal/output"
	"github.com/mrz1836/ethwire/internal/version"
)

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print version information",
	GroupID: groupConfig,
	Long: `Print the ethwire version, the commit it was built from and the
go-ethereum release its hashing and signing primitives come from.`,
	Example: `  ethwire version
  ethwire version -o json`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}

type versionResult struct {
	version.Info
}

func (r versionResult) Text() string {
	var f output.Fields
	f.Add("Version", r.String())
	f.Add("Go", r.GoVersion)
	f.Add("go-ethereum", r.GethVersion)
	f.Add("Platform", r.Platform)
	return f.Text()
}

func runVersion(cmd *cobra.Command, _ []string) error {
	return GetCmdContext(cmd).printer(cmd).Print(versionResult{Info: version.Get()})
}
