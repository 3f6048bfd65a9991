package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCommandTreeDocumentation checks every command for the help texture
// users rely on: a Use line, a short summary, a long description without
// inline examples, and runnable examples on leaves.
func TestCommandTreeDocumentation(t *testing.T) {
	const maxShortLen = 80

	walkCommands(rootCmd, func(cmd *cobra.Command) {
		if cmd.Name() == "help" {
			return // added by cobra
		}
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Use)
			assert.NotEmpty(t, cmd.Short)
			assert.LessOrEqual(t, len(cmd.Short), maxShortLen, "Short too long: %q", cmd.Short)
			assert.NotEmpty(t, cmd.Long)
			assert.NotContains(t, cmd.Long, "\nExample:")
			assert.NotContains(t, cmd.Long, "\nExamples:")

			if cmd.Runnable() && cmd.HasParent() {
				assert.NotEmpty(t, cmd.Example, "leaf command without Example")
			}
			if cmd.Example != "" {
				assert.Contains(t, cmd.Example, "ethwire")
			}
		})
	})
}

// TestFlagsDocumented checks that every flag has usage text and that
// required flags say so.
func TestFlagsDocumented(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			t.Run(cmd.CommandPath()+"/--"+f.Name, func(t *testing.T) {
				assert.NotEmpty(t, f.Usage)
				if _, required := f.Annotations[cobra.BashCompOneRequiredFlag]; required {
					assert.Contains(t, f.Usage, "required")
				}
			})
		})
	})
}

func TestTopLevelCommandsGrouped(t *testing.T) {
	want := map[string]string{
		"rlp":     groupCodec,
		"tx":      groupCodec,
		"auth":    groupCodec,
		"sig":     groupCodec,
		"config":  groupConfig,
		"version": groupConfig,
	}
	for _, cmd := range rootCmd.Commands() {
		if !cmd.IsAvailableCommand() {
			continue
		}
		assert.NotEmpty(t, cmd.GroupID, "top-level command %q has no group", cmd.Name())
		if g, ok := want[cmd.Name()]; ok {
			assert.Equal(t, g, cmd.GroupID, cmd.Name())
		}
	}
}

func TestCommandTreePaths(t *testing.T) {
	var visited []string
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		visited = append(visited, cmd.CommandPath())
	})

	for _, path := range []string{
		"ethwire",
		"ethwire rlp decode",
		"ethwire rlp encode",
		"ethwire tx decode",
		"ethwire tx hash",
		"ethwire tx sign",
		"ethwire tx sender",
		"ethwire tx encode",
		"ethwire auth hash",
		"ethwire auth sign",
		"ethwire auth authority",
		"ethwire sig convert",
		"ethwire config init",
		"ethwire config show",
		"ethwire config get",
		"ethwire config set",
		"ethwire config path",
		"ethwire completion",
		"ethwire version",
	} {
		assert.Contains(t, visited, path)
	}
}

// The tests below render help through the shared command tree, so they are
// not parallel.

func TestRootHelpShowsGroups(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"--help"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Codec Commands:")
	assert.Contains(t, buf.String(), "Configuration:")
}

func TestParentHelpListsSubcommands(t *testing.T) {
	for _, parent := range []*cobra.Command{rlpCmd, txCmd, authCmd, sigCmd, configCmd} {
		t.Run(parent.Name(), func(t *testing.T) {
			buf := new(bytes.Buffer)
			parent.SetOut(buf)
			t.Cleanup(func() { parent.SetOut(nil) })
			require.NoError(t, parent.Help())

			for _, sub := range parent.Commands() {
				if sub.IsAvailableCommand() {
					assert.Contains(t, buf.String(), sub.Name())
				}
			}
		})
	}
}

func TestLeafHelpShowsExamplesAndGlobalFlags(t *testing.T) {
	for _, leaf := range []*cobra.Command{rlpDecodeCmd, txDecodeCmd, authSignCmd, sigConvertCmd} {
		t.Run(leaf.CommandPath(), func(t *testing.T) {
			buf := new(bytes.Buffer)
			leaf.SetOut(buf)
			t.Cleanup(func() { leaf.SetOut(nil) })
			require.NoError(t, leaf.Help())

			help := buf.String()
			assert.Contains(t, help, "Examples:")
			for _, flag := range []string{"--home", "--output", "--verbose"} {
				assert.Contains(t, help, flag)
			}
		})
	}
}

func TestDescribeSubcommands(t *testing.T) {
	t.Parallel()

	noop := func(*cobra.Command, []string) {}
	parent := &cobra.Command{Use: "tx", Long: "Transaction tools.\n"}
	parent.AddCommand(
		&cobra.Command{Use: "decode", Short: "Decode raw transactions", Run: noop},
		&cobra.Command{Use: "sender", Short: "Recover the sender", Run: noop},
		&cobra.Command{Use: "debug", Short: "Internal", Hidden: true, Run: noop},
	)

	describeSubcommands(parent)

	assert.True(t, strings.HasPrefix(parent.Long, "Transaction tools.\n\nSubcommands:\n"))
	assert.Contains(t, parent.Long, "  decode  Decode raw transactions\n")
	assert.Contains(t, parent.Long, "  sender  Recover the sender\n")
	assert.NotContains(t, parent.Long, "debug")
}

func TestDescribeSubcommands_LeavesAlone(t *testing.T) {
	t.Parallel()

	leaf := &cobra.Command{Use: "hash", Long: "Hash a transaction."}
	describeSubcommands(leaf)
	assert.Equal(t, "Hash a transaction.", leaf.Long)

	onlyHidden := &cobra.Command{Use: "p", Long: "P."}
	onlyHidden.AddCommand(&cobra.Command{Use: "h", Hidden: true, Run: func(*cobra.Command, []string) {}})
	describeSubcommands(onlyHidden)
	assert.Equal(t, "P.", onlyHidden.Long)
}

func TestRequiredAddressOnAuthHash(t *testing.T) {
	authHashCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "address" {
			f.Changed = false
		}
	})

	err := authHashCmd.ValidateRequiredFlags()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address")
}
