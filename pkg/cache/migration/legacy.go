package migration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/logger"
	"github.com/omnicli/omni/pkg/workdir"
)

// legacyReleaseCacheTTL is used when replaying a legacy release cache
// entry, since the old per-category file recorded when it was fetched but
// not a TTL: spec.md §4.1's release cache default governs any refresh that
// happens afterward, this just seeds the table so the first `up` after
// upgrading doesn't re-fetch something that was fetched minutes ago.
const legacyReleaseCacheTTL = 24 * time.Hour

var log = logger.New("cache:migration")

// marker is the sentinel file dropped in dataDir once replay completes, so
// a second `omni` invocation against the same data directory doesn't
// re-import already-migrated rows. Bumped to v2 when omnipath.json,
// repositories.json, homebrew taps, asdf plugins, and the release cache
// were added to the replay set: a store that only ever saw the v1 replay
// is missing those categories, so the absence of the v2 marker alone
// (even with a stale v1 marker already present) triggers one more pass.
// Every replay function is itself idempotent (upsert or unique-key
// insert-ignore), so re-running the full set against an already-migrated
// store is harmless.
const marker = ".migrated-v2"

// ReplayLegacyJSON imports every recognized per-category JSON file found
// in dataDir into store, then writes the completion marker. Individual
// files that don't exist are skipped; a file that exists but fails to
// parse is logged and skipped rather than aborting the whole replay, since
// a partially corrupt legacy cache shouldn't block every future command.
func ReplayLegacyJSON(store *cache.Store, dataDir string) error {
	if _, err := os.Stat(filepath.Join(dataDir, marker)); err == nil {
		return nil
	}

	replayAsdf(store, filepath.Join(dataDir, "asdf_operation.json"))
	replayAsdfPlugins(store, filepath.Join(dataDir, "asdf_operation.json"))
	replayGithubRelease(store, filepath.Join(dataDir, "github_release_operation.json"))
	replayReleaseCache(store, filepath.Join(dataDir, "github_release_operation.json"))
	replayHomebrew(store, filepath.Join(dataDir, "homebrew_operation.json"))
	replayHomebrewTaps(store, filepath.Join(dataDir, "homebrew_operation.json"))
	replayEnvironments(store, filepath.Join(dataDir, "up_environments.json"))
	replayPrompts(store, filepath.Join(dataDir, "prompts.json"))
	replayOmnipath(store, filepath.Join(dataDir, "omnipath.json"))
	replayRepositories(store, filepath.Join(dataDir, "repositories.json"))

	return os.WriteFile(filepath.Join(dataDir, marker), []byte("1\n"), 0o644)
}

func readJSON[T any](path string) (T, bool) {
	var out T
	data, err := os.ReadFile(path)
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		log.Printf("skipping unparsable legacy file %s: %v", path, err)
		return out, false
	}
	return out, true
}

func replayAsdf(store *cache.Store, path string) {
	f, ok := readJSON[asdfOperationFile](path)
	if !ok {
		return
	}
	for _, e := range f.Installed {
		if len(e.RequiredBy) == 0 {
			e.RequiredBy = []string{""}
		}
		for _, wd := range e.RequiredBy {
			if _, err := store.AddToolInstall(wd, cache.ToolInstall{
				Tool: e.Tool, ToolType: "asdf", Version: e.Version,
				BinPath: e.BinPath, InstallPath: e.InstallDir,
			}); err != nil {
				log.Printf("migrating asdf install %s@%s for %s: %v", e.Tool, e.Version, wd, err)
			}
		}
	}
}

func replayGithubRelease(store *cache.Store, path string) {
	f, ok := readJSON[githubReleaseOperationFile](path)
	if !ok {
		return
	}
	for _, e := range f.Installed {
		if len(e.RequiredBy) == 0 {
			e.RequiredBy = []string{""}
		}
		for _, wd := range e.RequiredBy {
			if _, err := store.AddToolInstall(wd, cache.ToolInstall{
				Tool: e.Repository, ToolType: "github_release", Version: e.Version,
				BinPath: e.BinPath, InstallPath: e.InstallDir,
			}); err != nil {
				log.Printf("migrating github release %s@%s for %s: %v", e.Repository, e.Version, wd, err)
			}
		}
	}
}

// replayHomebrew applies the ON CONFLICT (name, version, cask) fix noted
// in spec.md §9: legacy rows that collapsed a cask and non-cask install of
// the same name+version into one row are now kept distinct, since
// AddToolInstall's unique key includes cask.
func replayHomebrew(store *cache.Store, path string) {
	f, ok := readJSON[homebrewOperationFile](path)
	if !ok {
		return
	}
	for _, e := range f.Installed {
		if len(e.RequiredBy) == 0 {
			e.RequiredBy = []string{""}
		}
		for _, wd := range e.RequiredBy {
			if _, err := store.AddToolInstall(wd, cache.ToolInstall{
				Tool: e.Name, ToolType: "homebrew", Version: e.Version, Cask: e.Cask,
				BinPath: e.BinPath, InstallPath: e.InstallDir,
			}); err != nil {
				log.Printf("migrating homebrew install %s@%s (cask=%v) for %s: %v", e.Name, e.Version, e.Cask, wd, err)
			}
		}
	}
}

func replayEnvironments(store *cache.Store, path string) {
	f, ok := readJSON[upEnvironmentsFile](path)
	if !ok {
		return
	}
	for workdirID, e := range f.Workdirs {
		if e.EnvVersionID == "" {
			continue
		}
		err := store.PutEnvVersion(cache.EnvVersion{
			ID: e.EnvVersionID, WorkdirID: workdirID, ConfigHash: e.ConfigHash,
			Versions: e.Versions, Paths: e.Paths, EnvVars: e.EnvVars,
		})
		if err != nil {
			log.Printf("migrating env version for %s: %v", workdirID, err)
			continue
		}
		if err := store.SetWorkdirEnvAt(workdirID, e.EnvVersionID, orEpoch(e.AppliedAt)); err != nil {
			log.Printf("migrating workdir env pointer for %s: %v", workdirID, err)
		}
	}
}

// replayPrompts migrates the legacy per-workdir prompts.json into the
// (prompt_id, organization, repository) schema. Legacy answers were
// recorded per workdir with no organization/repository distinction, so
// each migrated answer becomes that workdir's repository-scoped override;
// it is never promoted to the organization-scoped default, since a
// repository-specific legacy answer can't be assumed to represent every
// repo under that organization.
func replayPrompts(store *cache.Store, path string) {
	f, ok := readJSON[promptsFile](path)
	if !ok {
		return
	}
	for workdirID, answers := range f.Workdirs {
		organization, repository := workdir.OrgRepo(workdirID)
		for promptID, answer := range answers {
			if err := store.SetPromptAnswer(promptID, organization, repository, answer); err != nil {
				log.Printf("migrating prompt %s for %s: %v", promptID, workdirID, err)
			}
		}
	}
}

// replayAsdfPlugins migrates the asdf_operation.json update cache's record
// of known plugins into the asdf_plugin table. The legacy file only ever
// recorded a plugin's last-updated timestamp, never its source url, so
// migrated rows carry an empty url until the plugin is next added through
// `up` (which does know the url).
func replayAsdfPlugins(store *cache.Store, path string) {
	f, ok := readJSON[asdfOperationFile](path)
	if !ok {
		return
	}
	for plugin := range f.UpdateCache.PluginsUpdatedAt {
		if err := store.AddAsdfPlugin(plugin, ""); err != nil {
			log.Printf("migrating asdf plugin %s: %v", plugin, err)
		}
	}
}

// replayHomebrewTaps migrates the legacy per-formula `taps` list into the
// homebrew_tap table, distinct from replayHomebrew's install rows.
func replayHomebrewTaps(store *cache.Store, path string) {
	f, ok := readJSON[homebrewOperationFile](path)
	if !ok {
		return
	}
	for _, tap := range f.Taps {
		if err := store.AddHomebrewTap(tap); err != nil {
			log.Printf("migrating homebrew tap %s: %v", tap, err)
		}
	}
}

// replayReleaseCache migrates github_release_operation.json's per-repository
// cache of fetched release lists into the release_cache table, seeded with
// legacyReleaseCacheTTL since the legacy file recorded a fetch time but no
// expiry.
func replayReleaseCache(store *cache.Store, path string) {
	f, ok := readJSON[githubReleaseOperationFile](path)
	if !ok {
		return
	}
	for repository, entry := range f.Releases {
		if err := store.PutReleaseCache("github_release", repository, entry.Releases, legacyReleaseCacheTTL); err != nil {
			log.Printf("migrating release cache for %s: %v", repository, err)
		}
	}
}

// replayOmnipath migrates omnipath.json's last-refresh bookkeeping into
// the metadata table: it's two scalar values with no relational shape of
// its own.
func replayOmnipath(store *cache.Store, path string) {
	f, ok := readJSON[omnipathFile](path)
	if !ok {
		return
	}
	if f.UpdatedAt != "" {
		if err := store.SetMetadata("omnipath.updated_at", f.UpdatedAt); err != nil {
			log.Printf("migrating omnipath.updated_at: %v", err)
		}
	}
	if f.UpdateErrorLog != "" {
		if err := store.SetMetadata("omnipath.update_error_log", f.UpdateErrorLog); err != nil {
			log.Printf("migrating omnipath.update_error_log: %v", err)
		}
	}
}

// replayRepositories migrates repositories.json's trust approvals and
// fingerprints into workdir_trusted/workdir_fingerprints, closing the gap
// where an upgrading user would otherwise silently lose every previously
// trusted workdir and be re-prompted for all of them.
func replayRepositories(store *cache.Store, path string) {
	f, ok := readJSON[repositoriesFile](path)
	if !ok {
		return
	}
	for _, workdirID := range f.Trusted {
		if err := store.SetTrusted(workdirID); err != nil {
			log.Printf("migrating trust for %s: %v", workdirID, err)
		}
	}
	for workdirID, fingerprints := range f.Fingerprints {
		for kind, fingerprint := range fingerprints {
			if err := store.UpdateFingerprint(workdirID, kind, fingerprint); err != nil {
				log.Printf("migrating %s fingerprint for %s: %v", kind, workdirID, err)
			}
		}
	}
}
