package cache

import (
	"database/sql"
	"encoding/json"
	"time"
)

// EnvVersion is an immutable, content-addressed snapshot of what a
// workdir's `up` resolved to: tool versions, PATH entries, and exported
// env vars (spec.md §3). Snapshots are keyed by EnvVersionID, a hash of
// config_hash plus the resolved contents, so identical `up` runs against
// an unchanged config reuse the same row.
type EnvVersion struct {
	ID         string
	WorkdirID  string
	ConfigHash string
	Versions   map[string]string // tool -> resolved version
	Paths      []string
	EnvVars    map[string]string
	CreatedAt  time.Time
}

// PutEnvVersion inserts an EnvVersion snapshot if one with this ID doesn't
// already exist (snapshots are immutable and content-addressed).
func (s *Store) PutEnvVersion(ev EnvVersion) error {
	versionsJSON, err := json.Marshal(ev.Versions)
	if err != nil {
		return &SerializationError{Table: "env_versions", Cause: err}
	}
	pathsJSON, err := json.Marshal(ev.Paths)
	if err != nil {
		return &SerializationError{Table: "env_versions", Cause: err}
	}
	envJSON, err := json.Marshal(ev.EnvVars)
	if err != nil {
		return &SerializationError{Table: "env_versions", Cause: err}
	}

	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO env_versions(env_version_id, workdir_id, config_hash, versions_json, paths_json, env_vars_json, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(env_version_id) DO NOTHING`,
			ev.ID, ev.WorkdirID, ev.ConfigHash, string(versionsJSON), string(pathsJSON), string(envJSON), nowRFC3339(),
		)
		if err != nil {
			return &SerializationError{Table: "env_versions", Cause: err}
		}
		return nil
	})
}

// SetWorkdirEnv points workdirID at envVersionID as its currently applied
// environment, and closes/opens the corresponding EnvHistory rows in the
// same transaction so the pointer and the audit trail never diverge.
func (s *Store) SetWorkdirEnv(workdirID, envVersionID string) error {
	return s.setWorkdirEnvAt(workdirID, envVersionID, nowRFC3339())
}

// SetWorkdirEnvAt behaves like SetWorkdirEnv but uses an explicit
// applied-at timestamp, for replaying a legacy migration's original
// history instead of stamping the migration's own wall-clock time.
func (s *Store) SetWorkdirEnvAt(workdirID, envVersionID, appliedAt string) error {
	return s.setWorkdirEnvAt(workdirID, envVersionID, appliedAt)
}

func (s *Store) setWorkdirEnvAt(workdirID, envVersionID, now string) error {
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE env_history SET closed_at = ? WHERE workdir_id = ? AND closed_at IS NULL`,
			now, workdirID,
		)
		if err != nil {
			return &SerializationError{Table: "env_history", Cause: err}
		}
		_, err = tx.Exec(
			`INSERT INTO workdir_env(workdir_id, env_version_id, applied_at) VALUES (?, ?, ?)
			 ON CONFLICT(workdir_id) DO UPDATE SET env_version_id = excluded.env_version_id, applied_at = excluded.applied_at`,
			workdirID, envVersionID, now,
		)
		if err != nil {
			return &SerializationError{Table: "workdir_env", Cause: err}
		}
		_, err = tx.Exec(
			`INSERT INTO env_history(workdir_id, env_version_id, opened_at) VALUES (?, ?, ?)`,
			workdirID, envVersionID, now,
		)
		if err != nil {
			return &SerializationError{Table: "env_history", Cause: err}
		}
		return nil
	})
}

// ClearWorkdirEnv closes the open EnvHistory entry and removes the
// workdir_env pointer entirely, used by `down`.
func (s *Store) ClearWorkdirEnv(workdirID string) error {
	return s.withExclusive(func(tx *sql.Tx) error {
		now := nowRFC3339()
		_, err := tx.Exec(
			`UPDATE env_history SET closed_at = ? WHERE workdir_id = ? AND closed_at IS NULL`,
			now, workdirID,
		)
		if err != nil {
			return &SerializationError{Table: "env_history", Cause: err}
		}
		_, err = tx.Exec(`DELETE FROM workdir_env WHERE workdir_id = ?`, workdirID)
		if err != nil {
			return &SerializationError{Table: "workdir_env", Cause: err}
		}
		return nil
	})
}

// CurrentEnvVersion returns the EnvVersion currently applied to workdirID,
// or nil if none is set (the workdir has never run `up`, or is currently
// down).
func (s *Store) CurrentEnvVersion(workdirID string) (*EnvVersion, error) {
	var ev EnvVersion
	var versionsJSON, pathsJSON, envJSON, createdAt string
	found := false

	err := s.withShared(func(db *sql.DB) error {
		row := db.QueryRow(
			`SELECT v.env_version_id, v.workdir_id, v.config_hash, v.versions_json, v.paths_json, v.env_vars_json, v.created_at
			 FROM workdir_env w JOIN env_versions v ON v.env_version_id = w.env_version_id
			 WHERE w.workdir_id = ?`,
			workdirID,
		)
		if err := row.Scan(&ev.ID, &ev.WorkdirID, &ev.ConfigHash, &versionsJSON, &pathsJSON, &envJSON, &createdAt); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return &SerializationError{Table: "env_versions", Cause: err}
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, err
	}

	if err := json.Unmarshal([]byte(versionsJSON), &ev.Versions); err != nil {
		return nil, &SerializationError{Table: "env_versions", Cause: err}
	}
	if err := json.Unmarshal([]byte(pathsJSON), &ev.Paths); err != nil {
		return nil, &SerializationError{Table: "env_versions", Cause: err}
	}
	if err := json.Unmarshal([]byte(envJSON), &ev.EnvVars); err != nil {
		return nil, &SerializationError{Table: "env_versions", Cause: err}
	}
	ev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &ev, nil
}
