// Package migration replays omni's legacy per-category JSON cache files
// into the relational store (pkg/cache), and performs the one-time
// pre-0.0.15 split of the original monolithic cache.json into those
// per-category files. Both stages are idempotent: a file already migrated
// is skipped, a file that fails to parse is logged and skipped rather
// than aborting the run, and unknown fields are silently ignored
// (spec.md §9).
package migration

import "encoding/json"

// asdfOperationFile mirrors the legacy asdf_operation.json shape: one
// entry per asdf-managed tool version, with the workdirs that requested it,
// plus the update cache's record of which plugins are known.
type asdfOperationFile struct {
	Installed   []asdfInstallEntry   `json:"installed"`
	UpdateCache asdfUpdateCacheEntry `json:"update_cache"`
}

type asdfUpdateCacheEntry struct {
	PluginsUpdatedAt map[string]string `json:"plugins_updated_at"`
}

type asdfInstallEntry struct {
	Tool       string   `json:"tool"`
	Version    string   `json:"version"`
	BinPath    string   `json:"bin_path"`
	InstallDir string   `json:"install_dir"`
	RequiredBy []string `json:"required_by"`
}

// githubReleaseOperationFile mirrors github_release_operation.json, plus
// the per-repository cache of fetched release lists.
type githubReleaseOperationFile struct {
	Installed []githubReleaseEntry                `json:"installed"`
	Releases  map[string]githubReleasesCacheEntry `json:"releases"`
}

type githubReleasesCacheEntry struct {
	Releases  json.RawMessage `json:"releases"`
	FetchedAt string          `json:"fetched_at"`
}

type githubReleaseEntry struct {
	Repository string   `json:"repository"`
	Version    string   `json:"version"`
	BinPath    string   `json:"bin_path"`
	InstallDir string   `json:"install_dir"`
	RequiredBy []string `json:"required_by"`
}

// homebrewOperationFile mirrors homebrew_operation.json. Legacy versions
// of omni keyed the upsert only on (name, version), which meant
// reinstalling a formula as a --cask silently updated the existing
// non-cask row instead of adding a new one; the migrated schema's unique
// key includes cask explicitly to fix that (spec.md §9).
type homebrewOperationFile struct {
	Installed []homebrewEntry `json:"installed"`
	Taps      []string        `json:"taps"`
}

type homebrewEntry struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Cask       bool     `json:"cask"`
	BinPath    string   `json:"bin_path"`
	InstallDir string   `json:"install_dir"`
	RequiredBy []string `json:"required_by"`
}

// upEnvironmentsFile mirrors up_environments.json: one EnvVersion snapshot
// per workdir, plus which one is currently applied.
type upEnvironmentsFile struct {
	Workdirs map[string]workdirEnvEntry `json:"workdirs"`
}

type workdirEnvEntry struct {
	EnvVersionID string            `json:"env_version_id"`
	ConfigHash   string            `json:"config_hash"`
	Versions     map[string]string `json:"versions"`
	Paths        []string          `json:"paths"`
	EnvVars      map[string]string `json:"env_vars"`
	// AppliedAt uses RFC3339 in newer files; empty-string or absent means
	// "unknown", migrated to the epoch sentinel per spec.md §4.1 rather
	// than left null, since applied_at/created_at are NOT NULL columns.
	AppliedAt string `json:"applied_at"`
}

// promptsFile mirrors prompts.json: per-workdir answers keyed by prompt id.
type promptsFile struct {
	Workdirs map[string]map[string]any `json:"workdirs"`
}

// omnipathFile mirrors omnipath.json: bookkeeping for the last omnipath
// refresh, carried forward into the metadata table rather than a
// dedicated table since it's two scalar values with no relational shape.
type omnipathFile struct {
	UpdatedAt      string `json:"updated_at"`
	UpdateErrorLog string `json:"update_error_log"`
}

// repositoriesFile mirrors repositories.json: the set of workdirs a user
// has approved to run untrusted-by-default operations against, plus the
// last-seen fingerprint of whatever `trust.kind` config each one uses to
// detect when a repo's trust-relevant state (e.g. its remote) has changed
// since it was trusted.
type repositoriesFile struct {
	Trusted      []string                     `json:"trusted"`
	Fingerprints map[string]map[string]string `json:"fingerprints"`
}

// epochSentinel is substituted for empty-string dates encountered during
// migration, per spec.md §4.1.
const epochSentinel = "1970-01-01T00:00:00Z"

func orEpoch(s string) string {
	if s == "" {
		return epochSentinel
	}
	return s
}
