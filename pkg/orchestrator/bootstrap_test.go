package orchestrator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/config"
)

func TestRenderConfigDiffShowsAddedKey(t *testing.T) {
	user := config.NewValue(map[string]any{"up": []any{"nodejs"}})
	suggest := config.NewValue(map[string]any{"up": []any{"nodejs"}, "path": map[string]any{"append": []any{"bin"}}})

	diff := RenderConfigDiff(user, suggest)
	assert.Contains(t, diff, "path:")
	assert.Contains(t, diff, "+")
}

func TestRenderConfigDiffNoChange(t *testing.T) {
	v := config.NewValue(map[string]any{"up": []any{"nodejs"}})
	diff := RenderConfigDiff(v, v)
	assert.Empty(t, diff)
}

func TestCanonicalCloneURL(t *testing.T) {
	assert.Equal(t, "https://github.com/org/repo", canonicalCloneURL("https://github.com/org/repo.git"))
	assert.Equal(t, "https://github.com/org/repo", canonicalCloneURL("https://github.com/org/repo/"))
	assert.Equal(t, "https://github.com/org/repo", canonicalCloneURL("HTTPS://GITHUB.COM/org/repo"))
}

func TestRepoBaseName(t *testing.T) {
	assert.Equal(t, "repo", repoBaseName("https://github.com/org/repo.git"))
}

func TestCloneSuggestedSkipsInNoMode(t *testing.T) {
	specs := []CloneSpec{{URL: "https://example.com/a.git"}}
	outcomes := CloneSuggested(context.Background(), specs, t.TempDir(), "no", nil)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Skipped)
}

func TestCloneSuggestedDoesNotLoopOnCycle(t *testing.T) {
	// a suggests b, b suggests a back: the visited set must stop recursion
	// after each canonical URL is seen once.
	origClone := cloneRepo
	defer func() { cloneRepo = origClone }()
	cloneRepo = func(ctx context.Context, url, dest string) error { return nil }

	visits := map[string]int{}
	readSuggestions := func(repoPath string) ([]CloneSpec, error) {
		base := filepath.Base(repoPath)
		visits[base]++
		if base == "a" {
			return []CloneSpec{{URL: "https://example.com/b.git"}}, nil
		}
		return []CloneSpec{{URL: "https://example.com/a.git"}}, nil
	}

	outcomes := CloneSuggested(context.Background(), []CloneSpec{{URL: "https://example.com/a.git"}}, t.TempDir(), "yes", readSuggestions)
	require.Len(t, outcomes, 2)
	assert.Equal(t, 1, visits["a"])
	assert.Equal(t, 1, visits["b"])
}

func TestNeedsRePromptFirstRun(t *testing.T) {
	store := openTestStoreForBootstrap(t)
	needs, err := NeedsRePrompt(store, "wd-1", FingerprintSuggestConfig, "abc123")
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestNeedsRePromptAfterRecord(t *testing.T) {
	store := openTestStoreForBootstrap(t)
	require.NoError(t, RecordFingerprint(store, "wd-1", FingerprintSuggestConfig, "abc123"))

	needs, err := NeedsRePrompt(store, "wd-1", FingerprintSuggestConfig, "abc123")
	require.NoError(t, err)
	assert.False(t, needs)

	needs, err = NeedsRePrompt(store, "wd-1", FingerprintSuggestConfig, "changed")
	require.NoError(t, err)
	assert.True(t, needs)
}

func openTestStoreForBootstrap(t *testing.T) *cache.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "omni.sqlite")
	s, err := cache.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
