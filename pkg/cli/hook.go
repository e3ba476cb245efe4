package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/omnicli/omni/pkg/envloader"
)

// NewHookCommand groups the `hook env`/`hook init`/`hook uuid` builtins.
// Per spec.md §1's Non-goal excluding "shell-integration hooks that
// inject environment variables into the parent shell", these only
// *emit* what such a hook needs; actually sourcing the output into the
// parent shell is the user's own shell function, external to omni.
func NewHookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Emit shell-integration snippets",
	}
	cmd.AddCommand(newHookEnvCommand())
	cmd.AddCommand(newHookInitCommand())
	cmd.AddCommand(newHookUUIDCommand())
	return cmd
}

// newHookEnvCommand prints the shell commands needed to move from the
// currently exported environment to this workdir's resolved EnvVersion
// (or to tear one down, if outside a workdir or the workdir has no
// active EnvVersion), per spec.md §4.3's dynamic environment diff.
func newHookEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the env diff for the shell hook to eval",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Store.Close()

			env := currentEnv()
			var diff envloader.Diff
			if a.InWorkdir {
				ev, err := a.Store.CurrentEnvVersion(a.WorkdirID)
				if err != nil {
					return err
				}
				if ev != nil {
					diff = envloader.ComputeApply(*ev, env)
				} else {
					diff = envloader.ComputeTeardown(env)
				}
			} else {
				diff = envloader.ComputeTeardown(env)
			}
			// bash and zsh share the same POSIX export/unset syntax;
			// spec.md §1 leaves richer per-shell rendering (fish, nu,
			// ...) to the out-of-scope shell-integration collaborator.
			fmt.Print(envloader.RenderShellScript(diff, envloader.Bash))
			return nil
		},
	}
}

// newHookInitCommand prints the shell function the user sources once in
// their rc file: it wraps `omni`, cd's into the path `omni cd`/`omni
// clone` print, and evals `omni hook env` after every omni invocation.
// No prompt hook is installed, so a plain shell `cd` does not refresh it.
func newHookInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init <shell>",
		Short: "Print the shell function to source omni's hook from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash", "zsh":
				fmt.Print(posixHookInit)
			default:
				return fmt.Errorf("unsupported shell %q (supported: bash, zsh)", args[0])
			}
			return nil
		},
	}
}

const posixHookInit = `omni() {
  if [ "$1" = "cd" ] || [ "$1" = "clone" ]; then
    local __omni_dest
    __omni_dest="$(command omni "$@")" || return $?
    cd "$__omni_dest" || return $?
  else
    command omni "$@"
  fi
  eval "$(command omni hook env)"
}
`

// newHookUUIDCommand prints a fresh random identity, used by shell
// integrations that need a stable per-session token independent of
// workdir identity (spec.md §4.2's sentinel UUIDs use the same
// underlying generator).
func newHookUUIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "uuid",
		Short: "Print a newly generated UUID",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(uuid.NewString())
			return nil
		},
	}
}
