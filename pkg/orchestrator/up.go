package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/config"
	"github.com/omnicli/omni/pkg/console"
	"github.com/omnicli/omni/pkg/logger"
	"github.com/omnicli/omni/pkg/progress"
	"github.com/omnicli/omni/pkg/toolstep"
)

var log = logger.New("orchestrator:up")

// TrustMode controls how the orchestrator resolves the trust gate
// (spec.md §4.7 step 2, §6's `--trust` flag).
type TrustMode int

const (
	// TrustPrompt asks the user interactively when the workdir isn't
	// already trusted.
	TrustPrompt TrustMode = iota
	// TrustAlways accepts any workdir without asking.
	TrustAlways
	// TrustNever declines any workdir that isn't already trusted.
	TrustNever
)

// UpOptions carries the `up` flags from spec.md §6 that affect a single
// invocation's behavior.
type UpOptions struct {
	NoCache          bool
	FailOnUpgrade    bool
	Trust            TrustMode
	Bootstrap        bool
	CloneSuggested   string // "yes" | "ask" | "no"
	UpdateRepository bool
	UpdateUserConfig string   // "yes" | "ask" | "no" | ""
	PromptIDs        []string // `--prompt <id>`, repeatable: force-reprompt just these
	PromptAll        bool     // `--prompt-all`: force-reprompt every prompt this workdir defines
}

// UpResult summarizes what one `up` invocation did, for the command layer
// to report to the user.
type UpResult struct {
	WorkdirID     string
	EnvVersion    cache.EnvVersion
	Installed     []string // "tool version" for steps that actually installed
	Reused        []string // "tool version" for steps that found an existing install
	Removed       []cache.ToolInstall
	PromptAnswers map[string]string // prompt_id -> answer, resolved this run
}

// Up runs the full C7 sequence against workdirRoot: ensure workdir id,
// trust gate, parse `up:`, run each step in order, write the new
// EnvVersion, reconcile reference counts, and, when autoTidyDue reports
// the tidy schedule as due, sweep orphans.
func Up(ctx context.Context, store *cache.Store, workdirID, workdirRoot string, cfg config.Value, opts UpOptions, h progress.Handler) (*UpResult, error) {
	if err := gateTrust(store, workdirID, opts.Trust); err != nil {
		return nil, err
	}

	if opts.Bootstrap {
		bootstrapOpts := BootstrapOptions{
			CloneSuggested:   opts.CloneSuggested,
			UpdateRepository: opts.UpdateRepository,
			UpdateUserConfig: opts.UpdateUserConfig,
		}
		if err := RunBootstrap(ctx, store, workdirID, workdirRoot, cfg, bootstrapOpts); err != nil {
			return nil, err
		}
	}

	specs, report := ParseUpSteps(cfg.Get("up"))
	for _, e := range report.Errors {
		log.Printf("up config error (skipped): %v", e)
	}

	result := &UpResult{WorkdirID: workdirID}

	if promptSpecs := ParsePromptSpecs(cfg.Get("prompts")); len(promptSpecs) > 0 {
		forceIDs := make(map[string]bool, len(opts.PromptIDs))
		for _, id := range opts.PromptIDs {
			forceIDs[id] = true
		}
		answers, err := ResolvePrompts(store, workdirID, promptSpecs, forceIDs, opts.PromptAll)
		if err != nil {
			return nil, err
		}
		result.PromptAnswers = answers
	}
	versions := map[string]string{}
	var paths []string
	seenPaths := map[string]struct{}{}

	for i, spec := range specs {
		label := fmt.Sprintf("%s %s", spec.Step.Tool(), spec.VersionExpr)
		sub := h.Sub(label + ": ")
		sub.Start(i+1, len(specs), label)

		up, err := toolstep.Up(ctx, store, workdirID, spec.Step, spec.VersionExpr, spec.Cask, sub)
		if err != nil {
			sub.Fail(i+1, len(specs), label, err)
			if opts.FailOnUpgrade {
				if existing, ferr := store.FindToolInstall(spec.Step.Tool(), spec.Step.ToolType(), spec.VersionExpr, spec.Cask); ferr == nil && existing != nil {
					log.Printf("step %s failed but an existing install satisfies it, continuing per --fail-on-upgrade", spec.Step.Tool())
					continue
				}
			}
			return nil, &StepFailedError{Index: i, Tool: spec.Step.Tool(), Cause: err}
		}
		sub.Done(i+1, len(specs), label)

		versions[spec.Step.Tool()] = up.Version
		if up.BinPath != "" {
			if _, ok := seenPaths[up.BinPath]; !ok {
				seenPaths[up.BinPath] = struct{}{}
				paths = append(paths, up.BinPath)
			}
		}
		if up.Reused {
			result.Reused = append(result.Reused, spec.Step.Tool()+" "+up.Version)
		} else {
			result.Installed = append(result.Installed, spec.Step.Tool()+" "+up.Version)
		}
	}

	ev := buildEnvVersion(workdirID, cfg, versions, paths)
	if err := store.PutEnvVersion(ev); err != nil {
		return nil, err
	}
	if err := store.SetWorkdirEnv(workdirID, ev.ID); err != nil {
		return nil, err
	}
	result.EnvVersion = ev

	if err := reconcile(store, workdirID, specs); err != nil {
		return nil, err
	}

	if autoTidyDue(store, cfg) {
		removed, err := sweepOrphans(ctx, store, h)
		if err != nil {
			log.Printf("orphan sweep failed (non-fatal): %v", err)
		}
		result.Removed = removed
		if err := store.SetMetadata(lastTidyMetadataKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
			log.Printf("recording tidy run time (non-fatal): %v", err)
		}
	}

	return result, nil
}

// gateTrust implements spec.md §4.7 step 2: ask the user to trust the
// workdir unless it's already trusted or a non-interactive override was
// given.
func gateTrust(store *cache.Store, workdirID string, mode TrustMode) error {
	if mode == TrustAlways {
		return store.SetTrusted(workdirID)
	}

	trusted, err := store.IsTrusted(workdirID)
	if err != nil {
		return err
	}
	if trusted {
		return nil
	}
	if mode == TrustNever {
		return &TrustDeclinedError{WorkdirID: workdirID}
	}

	ok, err := console.ConfirmAction(
		fmt.Sprintf("Trust %s to run its `up` configuration?", workdirID),
		"Trust", "Skip",
	)
	if err != nil {
		return &UserAbortError{Prompt: "trust"}
	}
	if !ok {
		return &TrustDeclinedError{WorkdirID: workdirID}
	}
	return store.SetTrusted(workdirID)
}

// buildEnvVersion assembles the new, immutable EnvVersion snapshot for
// this run (spec.md §3). Its ID is a content hash of the config and the
// resolved versions/paths, so an unchanged `up` against an unchanged
// config produces the same ID, and PutEnvVersion's ON CONFLICT DO NOTHING
// then leaves the existing row in place instead of adding a new one.
func buildEnvVersion(workdirID string, cfg config.Value, versions map[string]string, paths []string) cache.EnvVersion {
	configHash := hashValue(cfg)
	id := hashParts(configHash, versions, paths)
	return cache.EnvVersion{
		ID:         id,
		WorkdirID:  workdirID,
		ConfigHash: configHash,
		Versions:   versions,
		Paths:      paths,
		EnvVars:    map[string]string{},
	}
}

func hashValue(v config.Value) string {
	data, _ := json.Marshal(v.Raw())
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hashParts(configHash string, versions map[string]string, paths []string) string {
	keys := make([]string, 0, len(versions))
	for k := range versions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := sha256.New()
	h.Write([]byte(configHash))
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte(versions[k]))
	}
	for _, p := range paths {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// reconcile implements spec.md §4.6's end-of-`up` cleanup: any tool
// install this workdir previously required but that isn't in the new
// expected set (specs) has this workdir's claim removed, so a tool
// dropped from `up:` gets its required_by decremented even though the
// workdir itself stays up.
func reconcile(store *cache.Store, workdirID string, specs []StepSpec) error {
	expected := map[string]struct{}{}
	for _, s := range specs {
		expected[s.Step.ToolType()+":"+s.Step.Tool()] = struct{}{}
	}

	current, err := store.ListToolInstallsForWorkdir(workdirID)
	if err != nil {
		return err
	}
	for _, ti := range current {
		if _, ok := expected[ti.ToolType+":"+ti.Tool]; ok {
			continue
		}
		if err := store.RemoveRequiredBy(workdirID, ti.ID); err != nil {
			return err
		}
	}
	return nil
}

// sweepOrphans implements spec.md §4.6's periodic uninstall pass: remove
// every tool_install row with zero remaining required_by references that
// has also gone unused for at least cache.DefaultOrphanTTL, run
// its tool type's own uninstall command, then delete its install
// directory from disk.
func sweepOrphans(ctx context.Context, store *cache.Store, h progress.Handler) ([]cache.ToolInstall, error) {
	removed, err := store.SweepOrphanInstalls(cache.DefaultOrphanTTL)
	if err != nil {
		return nil, err
	}
	for _, ti := range removed {
		sub := h.Sub("cleanup: ")
		if err := uninstallTool(ctx, ti, sub); err != nil {
			log.Printf("uninstalling orphaned %s %s: %v (removing install dir anyway)", ti.Tool, ti.Version, err)
		}
		if err := os.RemoveAll(ti.InstallPath); err != nil {
			log.Printf("removing install dir %s: %v", ti.InstallPath, err)
		}
	}
	return removed, nil
}

func uninstallTool(ctx context.Context, ti cache.ToolInstall, h progress.Handler) error {
	switch ti.ToolType {
	case "asdf":
		return toolstep.AsdfStep{Plugin: ti.Tool}.Down(ctx, ti.Version, h)
	case "homebrew":
		return toolstep.HomebrewStep{Name: ti.Tool, Cask: ti.Cask}.Down(ctx, ti.Version, h)
	case "github_release", "github-release":
		return nil // no native uninstall; the caller removes InstallPath unconditionally
	default:
		return fmt.Errorf("unknown tool type %q, cannot run its uninstall", ti.ToolType)
	}
}
