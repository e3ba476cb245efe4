package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// NewCloneCommand implements the `clone <url>` builtin: clone url under
// reposRoot and print the resulting path, for the same `cd
// "$(omni clone ...)"` shell-hook pattern as `cd` (spec.md §1's Non-goal
// on shell integration).
func NewCloneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clone <url>",
		Short: "Clone a repository into omni's managed repos root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Store.Close()

			url := args[0]
			dest := filepath.Join(reposRoot(a.Config), cloneBaseName(url))
			if _, err := os.Stat(dest); err == nil {
				fmt.Println(dest)
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("creating repos root: %w", err)
			}
			c := exec.CommandContext(context.Background(), "git", "clone", url, dest)
			c.Stdout = os.Stderr
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return fmt.Errorf("cloning %s: %w", url, err)
			}
			fmt.Println(dest)
			return nil
		},
	}
}

func cloneBaseName(url string) string {
	u := strings.TrimSuffix(strings.TrimSpace(url), ".git")
	u = strings.TrimSuffix(u, "/")
	parts := strings.Split(u, "/")
	return parts[len(parts)-1]
}
