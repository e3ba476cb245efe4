package orchestrator

import (
	"context"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/progress"
)

// DownResult summarizes what `down` did, mirroring UpResult.
type DownResult struct {
	WorkdirID string
	Removed   []cache.ToolInstall
}

// Down implements spec.md §4.7/§4.6's teardown path: decrement this
// workdir's claim on every tool install it currently requires, clear its
// active EnvVersion pointer, and sweep installs that are orphaned and
// have gone unused for at least cache.DefaultOrphanTTL.
func Down(ctx context.Context, store *cache.Store, workdirID string, h progress.Handler) (*DownResult, error) {
	installs, err := store.ListToolInstallsForWorkdir(workdirID)
	if err != nil {
		return nil, err
	}

	for _, ti := range installs {
		if err := store.RemoveRequiredBy(workdirID, ti.ID); err != nil {
			return nil, err
		}
	}

	if err := store.ClearWorkdirEnv(workdirID); err != nil {
		return nil, err
	}

	removed, err := sweepOrphans(ctx, store, h)
	if err != nil {
		log.Printf("orphan sweep during down failed (non-fatal): %v", err)
	}
	return &DownResult{WorkdirID: workdirID, Removed: removed}, nil
}
