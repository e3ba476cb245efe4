package orchestrator

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/config"
)

func TestDueForAutoTidyZeroLastRun(t *testing.T) {
	due, err := DueForAutoTidy("0 3 * * *", time.Time{}, time.Now())
	require.NoError(t, err)
	assert.True(t, due)
}

func TestDueForAutoTidyNotYetDue(t *testing.T) {
	lastRun := time.Date(2026, 7, 31, 3, 0, 0, 0, time.UTC)
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	due, err := DueForAutoTidy("0 3 * * *", lastRun, now)
	require.NoError(t, err)
	assert.False(t, due)
}

func TestDueForAutoTidyPastNextOccurrence(t *testing.T) {
	lastRun := time.Date(2026, 7, 31, 3, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 1, 4, 0, 0, 0, time.UTC)
	due, err := DueForAutoTidy("0 3 * * *", lastRun, now)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestDueForAutoTidyInvalidSchedule(t *testing.T) {
	_, err := DueForAutoTidy("not a cron expr", time.Time{}, time.Now())
	assert.Error(t, err)
}

func TestAutoTidyDueWithNoRecordedRun(t *testing.T) {
	s, err := cache.Open(filepath.Join(t.TempDir(), "omni.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	cfg := config.NewValue(map[string]any{"tidy": map[string]any{"schedule": "0 3 * * *"}})
	assert.True(t, autoTidyDue(s, cfg))
}

func TestAutoTidyDueFalseRightAfterRecordedRun(t *testing.T) {
	s, err := cache.Open(filepath.Join(t.TempDir(), "omni.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetMetadata(lastTidyMetadataKey, time.Now().UTC().Format(time.RFC3339)))

	cfg := config.NewValue(map[string]any{"tidy": map[string]any{"schedule": "0 3 * * *"}})
	assert.False(t, autoTidyDue(s, cfg))
}

func TestAutoTidyDueUsesDefaultScheduleWhenUnset(t *testing.T) {
	s, err := cache.Open(filepath.Join(t.TempDir(), "omni.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetMetadata(lastTidyMetadataKey, time.Now().UTC().Format(time.RFC3339)))

	cfg := config.NewValue(map[string]any{})
	assert.False(t, autoTidyDue(s, cfg))
}
