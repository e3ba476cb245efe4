package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omnicli/omni/pkg/cli"
	"github.com/omnicli/omni/pkg/console"
	"github.com/omnicli/omni/pkg/constants"
	"github.com/omnicli/omni/pkg/dispatcher"
	"github.com/omnicli/omni/pkg/orchestrator"
	"github.com/omnicli/omni/pkg/stringutil"
)

var version = "dev"

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:     constants.CLIName,
	Short:   "A polyglot developer-workflow orchestrator",
	Version: version,
	Long: `omni manages a repository's development environment: resolving and
installing the tool versions its "up:" configuration declares, exporting
them into your shell, and dispatching any command it recognizes (a
sourced script, a config-declared alias, or a Makefile target) straight
through to it.

Common tasks:
  omni up                      # resolve and install this workdir's tools
  omni down                    # tear down the exported environment
  omni status                  # show what's currently applied
  omni cd my-repo               # resolve a managed repository's path
  omni <anything else>          # dispatched to a sourced/config/Makefile command`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "env", Title: "Environment Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "repo", Title: "Repository Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "config", Title: "Configuration Commands:"})

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.SetOut(os.Stderr)

	rootCmd.SetVersionTemplate(fmt.Sprintf("%s\n",
		console.FormatInfoMessage(fmt.Sprintf("%s version {{.Version}}", constants.CLIName))))

	originalHelpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		for _, sub := range cmd.Commands() {
			if sub.Name() == "completion" {
				sub.Hidden = true
			}
		}
		originalHelpFunc(cmd, args)
	})

	customHelp := &cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Long: `Help provides help for any command in the application.

Use "` + constants.CLIName + ` help all" to show help for every command.`,
		Run: func(c *cobra.Command, args []string) {
			if len(args) == 1 && args[0] == "all" {
				fmt.Fprintln(os.Stderr, console.FormatInfoMessage("omni - complete command reference"))
				fmt.Fprintln(os.Stderr, "")
				for _, sub := range rootCmd.Commands() {
					if sub.Hidden || sub.Name() == "help" {
						continue
					}
					fmt.Fprintf(os.Stderr, "\n%s\n\n", console.FormatInfoMessage("omni "+sub.Name()))
					_ = sub.Help()
				}
				return
			}
			cmd, _, err := rootCmd.Find(args)
			if cmd == nil || err != nil {
				fmt.Fprintf(os.Stderr, "unknown help topic %q\n", args)
				_ = rootCmd.Usage()
				return
			}
			cmd.InitDefaultHelpFlag()
			_ = cmd.Help()
		},
	}
	rootCmd.SetHelpCommand(customHelp)

	up := cli.NewUpCommand()
	down := cli.NewDownCommand()
	cd := cli.NewCdCommand()
	clone := cli.NewCloneCommand()
	configCmd := cli.NewConfigCommand()
	hookCmd := cli.NewHookCommand()
	scopeCmd := cli.NewScopeCommand()
	statusCmd := cli.NewStatusCommand()
	tidyCmd := cli.NewTidyCommand()

	up.GroupID = "env"
	down.GroupID = "env"
	statusCmd.GroupID = "env"
	tidyCmd.GroupID = "env"
	cd.GroupID = "repo"
	clone.GroupID = "repo"
	configCmd.GroupID = "config"
	hookCmd.GroupID = "config"
	scopeCmd.GroupID = "repo"

	rootCmd.AddCommand(up, down, cd, clone, configCmd, hookCmd, scopeCmd, statusCmd, tidyCmd)
	rootCmd.AddCommand(cli.NewAskpassCommand())
	rootCmd.AddCommand(cli.NewShimCommand())

	rootCmd.RunE = cli.NewDispatchHandler(builtinRunMap(configCmd, hookCmd))
}

// builtinRunMap adapts the already-registered cobra subcommands into the
// func([]string) error shape commands.Builtins wants, so the Command
// Loader's fuzzy/"did you mean?" pass can treat built-ins uniformly with
// sourced commands even though cobra itself dispatches them directly for
// the exact-argv case.
func builtinRunMap(configCmd, hookCmd *cobra.Command) map[string]func([]string) error {
	// runNamed re-enters rootCmd with words prepended back onto the
	// residual argv the Command Dispatcher passes in, since BuiltinRun
	// only receives what's left *after* the matched command name.
	runNamed := func(words ...string) func([]string) error {
		return func(args []string) error {
			rootCmd.SetArgs(append(append([]string{}, words...), args...))
			return rootCmd.Execute()
		}
	}
	runSub := func(parent *cobra.Command, words ...string) func([]string) error {
		return func(args []string) error {
			parent.SetArgs(append(append([]string{}, words...), args...))
			return parent.Execute()
		}
	}
	return map[string]func([]string) error{
		"up":                 runNamed("up"),
		"down":               runNamed("down"),
		"cd":                 runNamed("cd"),
		"clone":              runNamed("clone"),
		"config bootstrap":   runSub(configCmd, "bootstrap"),
		"config check":       runSub(configCmd, "check"),
		"config path switch": runSub(configCmd, "path", "switch"),
		"help":               runNamed("help"),
		"hook env":           runSub(hookCmd, "env"),
		"hook init":          runSub(hookCmd, "init"),
		"hook uuid":          runSub(hookCmd, "uuid"),
		"scope":              runNamed("scope"),
		"status":             runNamed("status"),
		"tidy":               runNamed("tidy"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// A dispatched command's stderr (a Makefile recipe, a sourced
		// script) is its own business, but errors omni itself formats can
		// echo back a token/secret name pulled from a config value or
		// environment variable; redact anything that looks like one
		// before it reaches the terminal or a captured log.
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(stringutil.SanitizeErrorMessage(err.Error())))
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error to the exit codes spec.md §6 fixes: 126 for
// a resolved command found but not executable, 127 for one not found,
// 130 for a cancelled prompt, and whatever a dispatched Makefile target
// itself exited with, otherwise a generic 1.
func exitCodeFor(err error) int {
	var exitErr *dispatcher.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var abortErr *orchestrator.UserAbortError
	if errors.As(err, &abortErr) {
		return 130
	}
	if errors.Is(err, syscall.ENOENT) {
		return 127
	}
	if errors.Is(err, syscall.EACCES) {
		return 126
	}
	return 1
}
