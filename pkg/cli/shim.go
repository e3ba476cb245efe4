package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omnicli/omni/pkg/config"
	"github.com/omnicli/omni/pkg/shim"
)

// NewShimCommand implements the hidden `shim exec <tool> -- <args>` the
// teacher-idiom shim script (pkg/shim.Manager.EnsureShim) re-enters
// through: it resolves the real tool binary from PATH, excluding the
// shim directory itself, and execs it directly (spec.md §4.4).
func NewShimCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "shim",
		Hidden: true,
	}
	exec := &cobra.Command{
		Use:                "exec <tool> -- [args...]",
		Args:               cobra.MinimumNArgs(1),
		Hidden:             true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := args[0]
			rest := args[1:]
			if len(rest) > 0 && rest[0] == "--" {
				rest = rest[1:]
			}
			shimDir := filepath.Join(config.DataHome(), "shims")
			return shim.Exec(tool, rest, shimDir)
		},
	}
	cmd.AddCommand(exec)
	return cmd
}
