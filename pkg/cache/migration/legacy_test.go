package migration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.Open(filepath.Join(t.TempDir(), "omni.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeJSONFile(t *testing.T, dir, name string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestReplayAsdfOperation(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()

	writeJSONFile(t, dir, "asdf_operation.json", asdfOperationFile{
		Installed: []asdfInstallEntry{
			{Tool: "nodejs", Version: "20.11.0", BinPath: "/x/bin/node", InstallDir: "/x", RequiredBy: []string{"wd-1"}},
		},
	})

	require.NoError(t, ReplayLegacyJSON(store, dir))

	found, err := store.FindToolInstall("nodejs", "asdf", "20.11.0", false)
	require.NoError(t, err)
	require.NotNil(t, found)

	_, err = os.Stat(filepath.Join(dir, marker))
	require.NoError(t, err)
}

func TestReplayIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()
	writeJSONFile(t, dir, "asdf_operation.json", asdfOperationFile{
		Installed: []asdfInstallEntry{{Tool: "nodejs", Version: "20.11.0", RequiredBy: []string{"wd-1"}}},
	})

	require.NoError(t, ReplayLegacyJSON(store, dir))
	// Second call should see the marker and skip entirely without error,
	// even though the store already has the row from the first pass.
	require.NoError(t, ReplayLegacyJSON(store, dir))
}

func TestReplayHomebrewCaskDistinctFromFormula(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()
	writeJSONFile(t, dir, "homebrew_operation.json", homebrewOperationFile{
		Installed: []homebrewEntry{
			{Name: "firefox", Version: "128.0", Cask: false, RequiredBy: []string{"wd-1"}},
			{Name: "firefox", Version: "128.0", Cask: true, RequiredBy: []string{"wd-1"}},
		},
	})

	require.NoError(t, ReplayLegacyJSON(store, dir))

	formula, err := store.FindToolInstall("firefox", "homebrew", "128.0", false)
	require.NoError(t, err)
	require.NotNil(t, formula)

	cask, err := store.FindToolInstall("firefox", "homebrew", "128.0", true)
	require.NoError(t, err)
	require.NotNil(t, cask)

	require.NotEqual(t, formula.ID, cask.ID)
}

func TestMigratePre0015SplitsMonolith(t *testing.T) {
	dir := t.TempDir()
	writeJSONFile(t, dir, "cache.json", monolith{
		AsdfOperation: &asdfOperationFile{
			Installed: []asdfInstallEntry{{Tool: "nodejs", Version: "20.11.0", RequiredBy: []string{"wd-1"}}},
		},
	})

	require.NoError(t, MigratePre0015(dir))

	_, err := os.Stat(filepath.Join(dir, "asdf_operation.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "cache.json.pre0015"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "cache.json"))
	require.True(t, os.IsNotExist(err))
}

func TestMigratePre0015NoMonolithIsNoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, MigratePre0015(dir))
}

func TestReplayOmnipath(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()

	writeJSONFile(t, dir, "omnipath.json", omnipathFile{
		UpdatedAt:      "2024-01-02T03:04:05Z",
		UpdateErrorLog: "timed out fetching github.com/acme/widgets",
	})

	require.NoError(t, ReplayLegacyJSON(store, dir))

	v, ok, err := store.GetMetadata("omnipath.updated_at")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2024-01-02T03:04:05Z", v)

	v, ok, err = store.GetMetadata("omnipath.update_error_log")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "timed out fetching github.com/acme/widgets", v)
}

func TestReplayRepositoriesTrustAndFingerprints(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()

	writeJSONFile(t, dir, "repositories.json", repositoriesFile{
		Trusted: []string{"github.com:acme-corp/widgets"},
		Fingerprints: map[string]map[string]string{
			"github.com:acme-corp/widgets": {"remote": "abc123"},
		},
	})

	require.NoError(t, ReplayLegacyJSON(store, dir))

	trusted, err := store.IsTrusted("github.com:acme-corp/widgets")
	require.NoError(t, err)
	require.True(t, trusted)

	match, err := store.CheckFingerprint("github.com:acme-corp/widgets", "remote", "abc123")
	require.NoError(t, err)
	require.True(t, match)
}

func TestReplayHomebrewTaps(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()

	writeJSONFile(t, dir, "homebrew_operation.json", homebrewOperationFile{
		Taps: []string{"homebrew/cask-fonts"},
	})

	require.NoError(t, ReplayLegacyJSON(store, dir))

	taps, err := store.ListHomebrewTaps()
	require.NoError(t, err)
	require.Equal(t, []string{"homebrew/cask-fonts"}, taps)
}

func TestReplayAsdfPlugins(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()

	writeJSONFile(t, dir, "asdf_operation.json", asdfOperationFile{
		UpdateCache: asdfUpdateCacheEntry{
			PluginsUpdatedAt: map[string]string{"nodejs": "2024-01-02T03:04:05Z"},
		},
	})

	require.NoError(t, ReplayLegacyJSON(store, dir))

	plugins, err := store.ListAsdfPlugins()
	require.NoError(t, err)
	_, ok := plugins["nodejs"]
	require.True(t, ok)
}

func TestReplayReleaseCache(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()

	writeJSONFile(t, dir, "github_release_operation.json", githubReleaseOperationFile{
		Releases: map[string]githubReleasesCacheEntry{
			"acme/widgets": {Releases: json.RawMessage(`[{"tag_name":"v1.0.0"}]`), FetchedAt: "2024-01-02T03:04:05Z"},
		},
	})

	require.NoError(t, ReplayLegacyJSON(store, dir))

	var out []map[string]any
	found, err := store.GetReleaseCache("github_release", "acme/widgets", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, out, 1)
	require.Equal(t, "v1.0.0", out[0]["tag_name"])
}
