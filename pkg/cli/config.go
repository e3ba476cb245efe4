package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omnicli/omni/pkg/config"
	"github.com/omnicli/omni/pkg/console"
	"github.com/omnicli/omni/pkg/orchestrator"
)

// NewConfigCommand groups the `config bootstrap`/`config check`/
// `config path switch` builtins under one parent, per spec.md §6.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and bootstrap omni configuration",
	}
	cmd.AddCommand(newConfigBootstrapCommand())
	cmd.AddCommand(newConfigCheckCommand())
	cmd.AddCommand(newConfigPathCommand())
	return cmd
}

// newConfigBootstrapCommand implements spec.md §4.7/§9's bootstrap
// side-effects as a standalone entry point, independent of `up
// --bootstrap`: diff the user's config against this repo's
// suggest_config, let the user choose apply-all/split/skip, apply the
// choice, and record the fingerprint so `up` stops nagging about it.
func newConfigBootstrapCommand() *cobra.Command {
	var worktree bool
	var cloneSuggested, updateUserConfig string
	var updateRepository bool

	c := &cobra.Command{
		Use:   "bootstrap",
		Short: "Offer to apply this repository's suggested configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Store.Close()
			if err := a.requireWorkdir(); err != nil {
				return err
			}

			opts := orchestrator.BootstrapOptions{
				CloneSuggested:   cloneSuggested,
				UpdateRepository: updateRepository,
				UpdateUserConfig: updateUserConfig,
			}
			if worktree {
				opts.CloneDestRoot = filepath.Join(reposRoot(a.Config), "worktrees")
			}
			return orchestrator.RunBootstrap(cmd.Context(), a.Store, a.WorkdirID, a.WorkdirRoot, a.Config, opts)
		},
	}
	c.Flags().BoolVar(&worktree, "worktree", false, "clone suggested repos under the worktree layout instead of as a sibling directory")
	c.Flags().StringVar(&cloneSuggested, "clone-suggested", "ask", "yes|ask|no: whether to clone suggested repositories")
	c.Flags().BoolVar(&updateRepository, "update-repository", false, "write an accepted suggestion back into this repo's own config file")
	c.Flags().StringVar(&updateUserConfig, "update-user-config", "", "yes|ask|no: also write an accepted suggestion into your user config")
	return c
}

// newConfigCheckCommand implements spec.md §6's `config check`: run the
// loader over the requested paths/files and report every collected
// ParseError, exiting non-zero if any were found.
func newConfigCheckCommand() *cobra.Command {
	var paths, files []string
	var global, local, includePackages bool

	c := &cobra.Command{
		Use:   "check",
		Short: "Validate omni configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if global && local {
				return fmt.Errorf("--global and --local are mutually exclusive")
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Store.Close()

			root := a.WorkdirRoot
			if global {
				root = ""
			}
			_, report := config.LoadAll(root)
			if local {
				report = &config.Report{}
				paths = append(paths, a.WorkdirRoot)
			}

			extra := append([]string{}, files...)
			for _, dir := range paths {
				for _, name := range []string{".omni.yaml", filepath.Join(".omni", "config.yaml")} {
					if _, serr := os.Stat(filepath.Join(dir, name)); serr == nil {
						extra = append(extra, filepath.Join(dir, name))
					}
				}
			}
			for _, p := range extra {
				if v, perr := config.ParseFile(p); perr != nil {
					report.Add(perr)
				} else {
					_ = v
				}
			}

			if includePackages {
				matches, _ := filepath.Glob(filepath.Join(reposRoot(a.Config), "packages", "*", ".omni.yaml"))
				for _, p := range matches {
					if _, perr := config.ParseFile(p); perr != nil {
						report.Add(perr)
					}
				}
			}

			if !report.HasErrors() {
				fmt.Fprintln(os.Stderr, console.FormatSuccessMessage("no configuration errors found"))
				return nil
			}
			for _, e := range report.Errors {
				fmt.Fprintln(os.Stderr, console.FormatErrorMessage(e.Error()))
			}
			return fmt.Errorf("%d configuration error(s) found", len(report.Errors))
		},
	}
	c.Flags().StringArrayVarP(&paths, "path", "P", nil, "additional directory to search for config files")
	c.Flags().StringArrayVarP(&files, "file", "C", nil, "additional file to check")
	c.Flags().BoolVar(&global, "global", false, "only check global configuration, ignoring workdir-local files")
	c.Flags().BoolVar(&local, "local", false, "only check workdir-local configuration, ignoring global files")
	c.Flags().BoolVar(&includePackages, "include-packages", false, "also check config files declared by cloned packages")
	return c
}

func newConfigPathCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "path",
		Short: "Inspect omni's configured search paths",
	}
	c.AddCommand(newConfigPathSwitchCommand())
	return c
}

// newConfigPathSwitchCommand implements `config path switch [<repo>]`:
// like `cd`, it only resolves a path (to the package directory or
// worktree sibling omni would place repo under) and prints it, since
// actually switching the parent shell's directory is the out-of-scope
// shell-integration hook (spec.md §1).
func newConfigPathSwitchCommand() *cobra.Command {
	var usePackage, useWorktree bool

	c := &cobra.Command{
		Use:   "switch [<repo>]",
		Short: "Resolve the package or worktree path for a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Store.Close()

			root := reposRoot(a.Config)
			if usePackage {
				root = filepath.Join(root, "packages")
			}
			if useWorktree {
				root = filepath.Join(root, "worktrees")
			}
			if len(args) == 0 {
				fmt.Println(root)
				return nil
			}
			fmt.Println(filepath.Join(root, args[0]))
			return nil
		},
	}
	c.Flags().BoolVar(&usePackage, "package", false, "resolve under the shared package directory")
	c.Flags().BoolVar(&useWorktree, "worktree", false, "resolve under the worktree sibling directory")
	return c
}
