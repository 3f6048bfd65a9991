package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// walkCommands calls fn for cmd and every command below it, parents first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// describeSubcommands appends a "Subcommands:" table to the Long text of a
// parent command. Names are padded to the longest visible one. Leaf commands
// and parents with only hidden children are left alone.
func describeSubcommands(cmd *cobra.Command) {
	var (
		visible []*cobra.Command
		width   int
	)
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		visible = append(visible, sub)
		width = max(width, len(sub.Name()))
	}
	if len(visible) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(cmd.Long, "\n"))
	sb.WriteString("\n\nSubcommands:\n")
	for _, sub := range visible {
		fmt.Fprintf(&sb, "  %-*s  %s\n", width, sub.Name(), sub.Short)
	}
	cmd.Long = sb.String()
}
