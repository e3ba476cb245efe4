package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omnicli/omni/pkg/console"
	"github.com/omnicli/omni/pkg/orchestrator"
	"github.com/omnicli/omni/pkg/progress"
)

// NewTidyCommand implements `tidy` (spec.md §4.6/§6): run the orphan
// sweep on demand, outside of whatever `up`/`down` happens to trigger one
// next.
func NewTidyCommand() *cobra.Command {
	var yes bool
	var searchPaths []string

	c := &cobra.Command{
		Use:   "tidy",
		Short: "Remove tool installs no longer required by any workdir",
		RunE: func(cmd *cobra.Command, args []string) error {
			// searchPaths would let tidy additionally scan workdirs outside
			// the cache store's own bookkeeping (e.g. ones never `up`'d
			// under this user); the sweep itself is keyed purely off
			// required_by counts (spec.md §4.6), so there is nothing
			// extra to scan yet and the flag is accepted without effect.
			_ = searchPaths

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Store.Close()

			if !yes {
				ok, err := console.ConfirmAction("Remove all orphaned tool installs?", "Tidy", "Cancel")
				if err != nil || !ok {
					return nil
				}
			}

			h := progress.New()
			result, err := orchestrator.Tidy(context.Background(), a.Store, h)
			if err != nil {
				return err
			}
			if len(result.Removed) == 0 {
				fmt.Fprintln(os.Stderr, console.FormatInfoMessage("nothing to tidy"))
				return nil
			}
			for _, ti := range result.Removed {
				fmt.Fprintln(os.Stderr, console.FormatSuccessMessage(fmt.Sprintf("removed %s %s", ti.Tool, ti.Version)))
			}
			return nil
		},
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "don't prompt for confirmation")
	c.Flags().StringArrayVar(&searchPaths, "search-path", nil, "additional path to search for workdirs to tidy")
	return c
}
