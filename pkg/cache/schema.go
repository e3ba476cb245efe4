package cache

// schemaVersion is bumped whenever the DDL below changes shape; Open()
// records it in the metadata table after applying the DDL. Open does not
// compare it with the stored value and runs no per-version migration.
const schemaVersion = 2

// ddl holds the table definitions for every entity in spec.md §3's data
// model. Kept as one batch of CREATE TABLE IF NOT EXISTS statements so
// Open() can execute it idempotently against both a fresh store file and
// one carried over from an older omni version.
const ddl = `
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tool_install (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	tool         TEXT NOT NULL,
	tool_type    TEXT NOT NULL,
	version      TEXT NOT NULL,
	bin_path     TEXT NOT NULL,
	install_path TEXT NOT NULL,
	cask         INTEGER NOT NULL DEFAULT 0,
	last_used_at TEXT,
	created_at   TEXT NOT NULL,
	UNIQUE(tool, tool_type, version, cask)
);

CREATE TABLE IF NOT EXISTS tool_install_required_by (
	tool_install_id INTEGER NOT NULL REFERENCES tool_install(id) ON DELETE CASCADE,
	workdir_id      TEXT NOT NULL,
	PRIMARY KEY (tool_install_id, workdir_id)
);

CREATE TABLE IF NOT EXISTS env_versions (
	env_version_id TEXT PRIMARY KEY,
	workdir_id     TEXT NOT NULL,
	config_hash    TEXT NOT NULL,
	versions_json  TEXT NOT NULL,
	paths_json     TEXT NOT NULL,
	env_vars_json  TEXT NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS workdir_env (
	workdir_id     TEXT PRIMARY KEY,
	env_version_id TEXT NOT NULL REFERENCES env_versions(env_version_id),
	applied_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS env_history (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	workdir_id     TEXT NOT NULL,
	env_version_id TEXT NOT NULL,
	opened_at      TEXT NOT NULL,
	closed_at      TEXT
);

CREATE TABLE IF NOT EXISTS plugin_index (
	path       TEXT PRIMARY KEY,
	category   TEXT,
	name       TEXT NOT NULL,
	metadata_json TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS release_cache (
	source     TEXT NOT NULL,
	repository TEXT NOT NULL,
	payload_json TEXT NOT NULL,
	fetched_at TEXT NOT NULL,
	expires_at TEXT NOT NULL,
	PRIMARY KEY (source, repository)
);

CREATE TABLE IF NOT EXISTS workdir_trusted (
	workdir_id TEXT PRIMARY KEY,
	trusted_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS workdir_fingerprints (
	workdir_id  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	PRIMARY KEY (workdir_id, kind)
);

-- organization-scoped answer has repository = '' (spec.md §3); a
-- repository-scoped row overrides the organization-scoped one for the
-- same (prompt_id, organization).
CREATE TABLE IF NOT EXISTS prompts (
	prompt_id    TEXT NOT NULL,
	organization TEXT NOT NULL,
	repository   TEXT NOT NULL DEFAULT '',
	answer_json  TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	PRIMARY KEY (prompt_id, organization, repository)
);

CREATE TABLE IF NOT EXISTS homebrew_tap (
	name       TEXT PRIMARY KEY,
	added_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS asdf_plugin (
	name       TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	added_at   TEXT NOT NULL
);
`
