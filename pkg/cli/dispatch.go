package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/commands"
	"github.com/omnicli/omni/pkg/config"
	"github.com/omnicli/omni/pkg/console"
	"github.com/omnicli/omni/pkg/dispatcher"
	"github.com/omnicli/omni/pkg/orchestrator"
)

// NewDispatchHandler returns the root command's RunE: when no built-in
// subcommand matched, argv is resolved against the Command Loader
// (pkg/commands) and handed to the Command Dispatcher (pkg/dispatcher),
// per spec.md §4.8's resolution pipeline and §4.9's execution models.
func NewDispatchHandler(builtinRun map[string]func([]string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}

		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Store.Close()

		reg := loadCommands(a, builtinRun)

		if resolved, n, ok := reg.Resolve(args); ok {
			return runDispatch(a, resolved, args[n:])
		}

		candidates := reg.FindFuzzy(args, commands.DefaultFuzzyConfig)
		top, ok, ambiguous := commands.ResolveFuzzy(candidates, commands.DefaultFuzzyConfig)
		if ok {
			return runDispatch(a, top.Command, nil)
		}
		if ambiguous {
			names := make([]string, 0, len(candidates))
			for _, c := range candidates {
				if len(names) == 5 {
					break
				}
				names = append(names, c.Command.Name)
			}
			choice, err := console.PromptSelect(fmt.Sprintf("%q is not a command. Did you mean:", args[0]), names)
			if err != nil {
				return fmt.Errorf("no matching command for %q", args[0])
			}
			for _, c := range candidates {
				if c.Command.Name == choice {
					return runDispatch(a, c.Command, nil)
				}
			}
		}
		return fmt.Errorf("%q is not an omni command", args[0])
	}
}

func runDispatch(a *App, cmd commands.Command, residualArgv []string) error {
	var ev cache.EnvVersion
	if a.InWorkdir {
		if got, err := a.Store.CurrentEnvVersion(a.WorkdirID); err == nil && got != nil {
			ev = *got
		}
	}

	var prompts map[string]string
	if a.InWorkdir {
		specs := orchestrator.ParsePromptSpecs(a.Config.Get("prompts"))
		if p, err := orchestrator.CachedPromptAnswers(a.Store, a.WorkdirID, specs); err == nil {
			prompts = p
		}
	}

	opts := dispatcher.Options{
		Store:       a.Store,
		WorkdirID:   a.WorkdirID,
		TrustPrompt: true,
		CurrentEnv:  currentEnv(),
		EnvVersion:  ev,
		Template: config.TemplateContext{
			ID:      a.WorkdirID,
			Root:    a.WorkdirRoot,
			Repo:    a.WorkdirRoot,
			Env:     ev.EnvVars,
			Prompts: prompts,
		},
	}
	return dispatcher.Dispatch(context.Background(), cmd, residualArgv, opts)
}
