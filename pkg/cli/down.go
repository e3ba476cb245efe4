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

// NewDownCommand implements the `down` builtin (spec.md §4.7's teardown
// path): decrement this workdir's reference on every tool it required and
// sweep anything left orphaned.
func NewDownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Tear down this workdir's resolved environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Store.Close()
			if err := a.requireWorkdir(); err != nil {
				return err
			}

			h := progress.New()
			result, err := orchestrator.Down(context.Background(), a.Store, a.WorkdirID, h)
			if err != nil {
				return err
			}
			for _, ti := range result.Removed {
				fmt.Fprintln(os.Stderr, console.FormatInfoMessage(fmt.Sprintf("removed orphaned %s %s", ti.Tool, ti.Version)))
			}
			return nil
		},
	}
}
