package toolstep

import (
	"context"
	"fmt"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/progress"
)

// Step is the shared protocol every tool variant (asdf-style language
// runtime, GitHub release, Homebrew formula/cask, ...) implements,
// per spec.md §4.6. The orchestrator drives every step through the same
// resolve → check-cache → install → register sequence regardless of
// which variant it is, so adding a new tool type never touches C7.
type Step interface {
	// ToolType identifies the variant for cache lookups ("asdf",
	// "github_release", "homebrew").
	ToolType() string
	// Tool is the variant-specific tool name (e.g. "nodejs", a GitHub
	// "owner/repo" slug, or a formula/cask name).
	Tool() string
	// Resolve turns a config-supplied version expression ("latest", a
	// prefix, an exact version) into a concrete version string available
	// to install, without installing it. Implementations fetch the
	// variant's version list and pick the highest one satisfying
	// Matches(versionExpr, candidate).
	Resolve(ctx context.Context, versionExpr string) (string, error)
	// Install performs the actual installation of version into installDir,
	// streaming its output to h.
	Install(ctx context.Context, version, installDir string, h progress.Handler) (binPath string, err error)
	// IsAvailable reports whether this variant's underlying tool manager
	// (asdf, brew, ...) is present on the system at all.
	IsAvailable() bool
}

// ResolveError wraps a failure to resolve a version expression to a
// concrete, installable version.
type ResolveError struct {
	Tool  string
	Cause error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolving version for %s: %v", e.Tool, e.Cause)
}
func (e *ResolveError) Unwrap() error { return e.Cause }

// UpResult reports what Up actually did for one step: the bin path to
// shim, the concrete version it resolved to, and whether an existing
// install was reused instead of running Install.
type UpResult struct {
	BinPath  string
	Version  string
	Reused   bool
}

// Up runs the shared resolve → check-cache → install → register protocol
// for step against workdirID, reusing an existing cache.ToolInstall row
// when one already satisfies the resolved version, and only invoking
// Install when it doesn't.
func Up(ctx context.Context, store *cache.Store, workdirID string, step Step, versionExpr string, cask bool, h progress.Handler) (UpResult, error) {
	if !step.IsAvailable() {
		return UpResult{}, fmt.Errorf("%s tool manager not available on this system", step.ToolType())
	}

	h.Update(fmt.Sprintf("resolving %s", step.Tool()))
	resolved, err := step.Resolve(ctx, versionExpr)
	if err != nil {
		return UpResult{}, &ResolveError{Tool: step.Tool(), Cause: err}
	}

	if existing, ferr := store.FindToolInstall(step.Tool(), step.ToolType(), resolved, cask); ferr == nil && existing != nil {
		h.Update(fmt.Sprintf("%s %s already installed", step.Tool(), resolved))
		if _, aerr := store.AddToolInstall(workdirID, *existing); aerr != nil {
			return UpResult{}, aerr
		}
		_ = store.TouchToolInstall(existing.ID)
		return UpResult{BinPath: existing.BinPath, Version: resolved, Reused: true}, nil
	}

	installDir := installDirFor(step, resolved)
	h.Update(fmt.Sprintf("installing %s %s", step.Tool(), resolved))
	binPath, err := step.Install(ctx, resolved, installDir, h)
	if err != nil {
		return UpResult{}, err
	}

	_, err = store.AddToolInstall(workdirID, cache.ToolInstall{
		Tool: step.Tool(), ToolType: step.ToolType(), Version: resolved,
		BinPath: binPath, InstallPath: installDir, Cask: cask,
	})
	return UpResult{BinPath: binPath, Version: resolved}, err
}

func installDirFor(step Step, version string) string {
	return fmt.Sprintf("%s/%s/%s", step.ToolType(), step.Tool(), version)
}
