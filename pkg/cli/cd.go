package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omnicli/omni/pkg/config"
)

// NewCdCommand implements the `cd <repo>` builtin. Per spec.md §1's
// Non-goal excluding "shell-integration hooks that inject environment
// variables into the parent shell", omni itself cannot change its
// parent's working directory: cd only resolves repo to an absolute path
// and prints it on stdout, the same contract `hook env` uses, for the
// shell function the user sources to `cd "$(omni cd "$1")"`.
func NewCdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cd <repo>",
		Short: "Resolve a known repository's path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Store.Close()

			if len(args) == 0 {
				fmt.Println(reposRoot(a.Config))
				return nil
			}
			path, err := resolveRepoPath(a.Config, args[0])
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

// reposRoot is where `clone` places repositories and `cd` looks for them,
// read from config's `clone.root` (defaulting to
// $XDG_DATA_HOME/omni/repos).
func reposRoot(cfg config.Value) string {
	if s, ok := cfg.Get("clone.root").String(); ok && s != "" {
		return s
	}
	return filepath.Join(config.DataHome(), "repos")
}

// resolveRepoPath finds the directory under reposRoot whose base name
// matches repo exactly, or failing that, the unique entry whose base name
// ends with "/"+repo (so "myrepo" can match "host/owner/myrepo").
func resolveRepoPath(cfg config.Value, repo string) (string, error) {
	root := reposRoot(cfg)
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("reading repos root %s: %w", root, err)
	}

	var exact string
	var suffixMatches []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		full := filepath.Join(root, e.Name())
		if e.Name() == repo {
			exact = full
		}
		if matches, err := walkForSuffix(full, repo); err == nil {
			suffixMatches = append(suffixMatches, matches...)
		}
	}
	if exact != "" {
		return exact, nil
	}
	if len(suffixMatches) == 1 {
		return suffixMatches[0], nil
	}
	if len(suffixMatches) > 1 {
		return "", fmt.Errorf("%q matches multiple repositories under %s: %s", repo, root, strings.Join(suffixMatches, ", "))
	}
	return "", fmt.Errorf("no repository named %q found under %s", repo, root)
}

// walkForSuffix finds subdirectories of root whose own directory name is
// suffix, to match omni's host/owner/repo layout without assuming its
// exact depth.
func walkForSuffix(root, suffix string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if d.Name() == suffix {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
