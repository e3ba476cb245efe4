// Package cli wires the Command Loader, Command Dispatcher, and
// Up/Down Orchestrator into the `omni` binary's cobra subcommands, one
// file per subcommand the way the teacher's own pkg/cli package is laid
// out (spec.md §6's CLI surface).
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/cache/migration"
	"github.com/omnicli/omni/pkg/commands"
	"github.com/omnicli/omni/pkg/config"
	"github.com/omnicli/omni/pkg/logger"
	"github.com/omnicli/omni/pkg/workdir"
)

var log = logger.New("cli:app")

// App bundles the per-invocation state every built-in subcommand needs:
// the merged config tree, the current workdir's identity, and an open
// handle on the cache store. It is assembled by loadApp, which each
// command's RunE calls for itself.
type App struct {
	Cwd         string
	WorkdirRoot string
	InWorkdir   bool
	WorkdirID   string
	Config      config.Value
	Report      *config.Report
	Store       *cache.Store
}

// loadApp resolves the current directory's workdir identity, loads the
// merged config tree, and opens the cache store, per spec.md §4.2/§4.1.
// Commands that don't need a workdir (e.g. `omni clone`) still get a
// valid App; InWorkdir is false and WorkdirID falls back to "".
func loadApp() (*App, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving current directory: %w", err)
	}

	root, inWorkdir := workdir.Root(cwd)
	var workdirID string
	if inWorkdir {
		workdirID, err = workdir.Id(root)
		if err != nil {
			return nil, fmt.Errorf("resolving workdir identity: %w", err)
		}
	}

	cfg, report := config.LoadAll(root)

	storePath := filepath.Join(config.CacheHome(), "omni.sqlite")
	store, err := cache.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("opening cache store: %w", err)
	}

	if err := migration.ReplayLegacyJSON(store, config.DataHome()); err != nil {
		log.Printf("replaying legacy JSON cache (non-fatal): %v", err)
	}

	return &App{
		Cwd:         cwd,
		WorkdirRoot: root,
		InWorkdir:   inWorkdir,
		WorkdirID:   workdirID,
		Config:      cfg,
		Report:      report,
		Store:       store,
	}, nil
}

func (a *App) requireWorkdir() error {
	if !a.InWorkdir {
		return fmt.Errorf("not inside a recognized workdir (no .git found above %s)", a.Cwd)
	}
	return nil
}

// currentEnv snapshots os.Environ() into a map, the shape envloader and
// the dispatcher operate on.
func currentEnv() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return env
}

// loadCommands runs all four Command Loader sources against a, in
// spec.md §4.8's fixed priority order, for subcommand resolution and
// shell-completion.
func loadCommands(a *App, builtinRun map[string]func([]string) error) *commands.Registry {
	var fromConfig, fromPath, fromMakefile []commands.Command

	fromConfig = commands.FromConfig(a.Config.Get("commands"), a.WorkdirRoot)

	if omnipath, ok := a.Config.Get("path").Slice(); ok {
		dirs := make([]string, 0, len(omnipath))
		for _, v := range omnipath {
			if s, ok := v.String(); ok {
				dirs = append(dirs, s)
			}
		}
		if paths, err := commands.FromPath(dirs); err == nil {
			fromPath = paths
		} else {
			log.Printf("loading path commands: %v", err)
		}
	}

	if a.InWorkdir {
		if mk, err := commands.FromMakefile(a.Cwd, a.WorkdirRoot, true, true); err == nil {
			fromMakefile = mk
		} else {
			log.Printf("loading Makefile commands: %v", err)
		}
	}

	return commands.Load(commands.Builtins(builtinRun), fromConfig, fromPath, fromMakefile)
}
