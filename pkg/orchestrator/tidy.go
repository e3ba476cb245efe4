package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/config"
	"github.com/omnicli/omni/pkg/progress"
)

// TidyResult reports what a manual or scheduled tidy pass removed.
type TidyResult struct {
	Removed []cache.ToolInstall
}

// DefaultTidySchedule is the cron cadence used for the auto-tidy check
// when config omits `tidy.schedule`: once a day, at 03:00.
const DefaultTidySchedule = "0 3 * * *"

// lastTidyMetadataKey records, in the cache store's metadata table, the
// RFC3339 timestamp a tidy pass (manual or auto) last actually ran at, so
// DueForAutoTidy has something to gate the next `up`'s auto-sweep against.
const lastTidyMetadataKey = "last_tidy_at"

// Tidy runs the orphan sweep outside of an `up` invocation, for the
// `omni tidy` builtin (spec.md §4.6, supplementing the up/down-triggered
// sweep with an explicit, on-demand one). An explicit tidy always runs
// regardless of schedule, but it still records its run time so a
// subsequent `up` doesn't also trigger the cadence-gated auto-sweep.
func Tidy(ctx context.Context, store *cache.Store, h progress.Handler) (*TidyResult, error) {
	removed, err := sweepOrphans(ctx, store, h)
	if err != nil {
		return nil, err
	}
	if err := store.SetMetadata(lastTidyMetadataKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		log.Printf("recording tidy run time (non-fatal): %v", err)
	}
	return &TidyResult{Removed: removed}, nil
}

// autoTidyDue reads the last recorded tidy run time and schedule out of
// store/cfg and reports whether `up`'s automatic sweep should run now,
// gating DueForAutoTidy's cron cadence against real state instead of
// leaving it computed but unused.
func autoTidyDue(store *cache.Store, cfg config.Value) bool {
	schedule, _ := cfg.Get("tidy.schedule").String()
	var lastRun time.Time
	if raw, ok, err := store.GetMetadata(lastTidyMetadataKey); err == nil && ok {
		if t, perr := time.Parse(time.RFC3339, raw); perr == nil {
			lastRun = t
		}
	}
	due, err := DueForAutoTidy(schedule, lastRun, time.Now())
	if err != nil {
		log.Printf("parsing tidy schedule %q (defaulting to due): %v", schedule, err)
		return true
	}
	return due
}

// DueForAutoTidy reports whether an automatic tidy pass is due, given the
// last time one ran and a cron-style retention cadence read from config's
// `tidy.schedule`. It is due once `now` has passed the cadence's next
// scheduled occurrence after lastRun, the same test a long-lived cron
// daemon would apply, but evaluated inline on whatever `up` invocation
// happens to run after the window opens rather than by a background
// process.
func DueForAutoTidy(schedule string, lastRun, now time.Time) (bool, error) {
	if schedule == "" {
		schedule = DefaultTidySchedule
	}
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return false, fmt.Errorf("parsing tidy schedule %q: %w", schedule, err)
	}
	if lastRun.IsZero() {
		return true, nil
	}
	next := sched.Next(lastRun)
	return !next.After(now), nil
}
