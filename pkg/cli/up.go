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

// NewUpCommand implements the `up` builtin (spec.md §4.7, §6's stable
// flag set).
func NewUpCommand() *cobra.Command {
	var (
		noCache          bool
		failOnUpgrade    bool
		bootstrap        bool
		cloneSuggested   string
		trust            string
		updateRepository bool
		updateUserConfig string
		promptIDs        []string
		promptAll        bool
	)

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Resolve and install this workdir's tool steps",
		Long: `Parses the up: section of this workdir's config into an ordered list of
tool steps, runs each in turn, and exports the resulting environment for
the shell hook to pick up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Store.Close()
			if err := a.requireWorkdir(); err != nil {
				return err
			}

			opts := orchestrator.UpOptions{
				NoCache:          noCache,
				FailOnUpgrade:    failOnUpgrade,
				Bootstrap:        bootstrap,
				CloneSuggested:   cloneSuggested,
				Trust:            parseTrustMode(trust),
				UpdateRepository: updateRepository,
				UpdateUserConfig: updateUserConfig,
				PromptIDs:        promptIDs,
				PromptAll:        promptAll,
			}

			h := progress.New()
			result, err := orchestrator.Up(context.Background(), a.Store, a.WorkdirID, a.WorkdirRoot, a.Config, opts, h)
			if err != nil {
				return err
			}

			for _, line := range result.Installed {
				fmt.Fprintln(os.Stderr, console.FormatSuccessMessage("installed "+line))
			}
			for _, line := range result.Reused {
				fmt.Fprintln(os.Stderr, console.FormatInfoMessage("reusing "+line))
			}
			for _, ti := range result.Removed {
				fmt.Fprintln(os.Stderr, console.FormatInfoMessage(fmt.Sprintf("removed orphaned %s %s", ti.Tool, ti.Version)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore cached tool installs and re-resolve every step")
	cmd.Flags().BoolVar(&failOnUpgrade, "fail-on-upgrade", false, "when a step fails but an existing install satisfies it, log a warning and continue")
	cmd.Flags().BoolVar(&bootstrap, "bootstrap", false, "offer to apply this repo's suggested config")
	cmd.Flags().StringVar(&cloneSuggested, "clone-suggested", "", "yes|ask|no: whether to clone this repo's suggested repositories")
	cmd.Flags().StringVar(&trust, "trust", "", "always|yes|no: how to resolve the trust gate non-interactively")
	cmd.Flags().BoolVar(&updateRepository, "update-repository", false, "write an accepted --bootstrap suggestion back into this repo's own config file")
	cmd.Flags().StringVar(&updateUserConfig, "update-user-config", "", "yes|ask|no: also write an accepted --bootstrap suggestion into your user config")
	cmd.Flags().StringArrayVar(&promptIDs, "prompt", nil, "force-reprompt this prompt id even if an answer is already cached (repeatable)")
	cmd.Flags().BoolVar(&promptAll, "prompt-all", false, "force-reprompt every prompt this workdir defines")
	return cmd
}

func parseTrustMode(s string) orchestrator.TrustMode {
	switch s {
	case "always", "yes":
		return orchestrator.TrustAlways
	case "no":
		return orchestrator.TrustNever
	default:
		return orchestrator.TrustPrompt
	}
}
