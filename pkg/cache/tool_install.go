package cache

import (
	"database/sql"
	"time"

	"github.com/omnicli/omni/pkg/constants"
)

// ToolInstall records one installed tool version on disk, shared across
// every workdir that depends on it (spec.md §3).
type ToolInstall struct {
	ID          int64
	Tool        string
	ToolType    string
	Version     string
	BinPath     string
	InstallPath string
	Cask        bool
	LastUsedAt  *time.Time
	CreatedAt   time.Time
}

// AddToolInstall inserts a tool install row if absent, and always marks
// workdirID as one of its required-by entries. Re-running up for the same
// workdir against an already-installed version is idempotent: the UNIQUE
// constraint on (tool, tool_type, version, cask) means a repeat install
// just adds the required_by row.
func (s *Store) AddToolInstall(workdirID string, ti ToolInstall) (int64, error) {
	var id int64
	err := s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO tool_install(tool, tool_type, version, bin_path, install_path, cask, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(tool, tool_type, version, cask) DO UPDATE SET bin_path = excluded.bin_path`,
			ti.Tool, ti.ToolType, ti.Version, ti.BinPath, ti.InstallPath, boolToInt(ti.Cask), nowRFC3339(),
		)
		if err != nil {
			return &SerializationError{Table: "tool_install", Cause: err}
		}
		// On the ON CONFLICT UPDATE path LastInsertId keeps a stale value
		// from an earlier insert, so the row's id is always looked up.
		row := tx.QueryRow(
			`SELECT id FROM tool_install WHERE tool=? AND tool_type=? AND version=? AND cask=?`,
			ti.Tool, ti.ToolType, ti.Version, boolToInt(ti.Cask),
		)
		if err := row.Scan(&id); err != nil {
			return &SerializationError{Table: "tool_install", Cause: err}
		}
		_, err = tx.Exec(
			`INSERT INTO tool_install_required_by(tool_install_id, workdir_id) VALUES (?, ?)
			 ON CONFLICT(tool_install_id, workdir_id) DO NOTHING`,
			id, workdirID,
		)
		if err != nil {
			return &SerializationError{Table: "tool_install_required_by", Cause: err}
		}
		return nil
	})
	return id, err
}

// RemoveRequiredBy drops workdirID's claim on a tool install. It does not
// remove the tool_install row itself; orphan sweeping is a separate pass
// (SweepOrphanInstalls) so down doesn't race a concurrent up elsewhere.
func (s *Store) RemoveRequiredBy(workdirID string, toolInstallID int64) error {
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`DELETE FROM tool_install_required_by WHERE tool_install_id = ? AND workdir_id = ?`,
			toolInstallID, workdirID,
		)
		if err != nil {
			return &SerializationError{Table: "tool_install_required_by", Cause: err}
		}
		return nil
	})
}

// DefaultOrphanTTL is the minimum time a zero-required_by install must sit
// unreferenced before SweepOrphanInstalls will remove it, so a tool dropped
// by one workdir and picked back up by another moments later (or a second
// workdir's concurrent `up` that hasn't recorded its required_by row yet)
// doesn't lose the install out from under it.
const DefaultOrphanTTL = time.Duration(constants.DefaultTTLDays) * 24 * time.Hour

// SweepOrphanInstalls deletes any tool_install row with zero remaining
// required_by references AND whose last_used_at (falling back to
// created_at if it was never touched) is at least minAge in the past, per
// spec.md §4.1's reference-counted uninstall and constants.DefaultTTLDays'
// grace window. It returns the removed rows so the caller can run each
// tool type's own uninstall command and then delete the install directory
// from disk, outside the lock.
func (s *Store) SweepOrphanInstalls(minAge time.Duration) ([]ToolInstall, error) {
	var removed []ToolInstall
	err := s.withExclusive(func(tx *sql.Tx) error {
		rows, err := tx.Query(
			`SELECT id, tool, tool_type, version, bin_path, install_path, cask, last_used_at, created_at FROM tool_install ti
			 WHERE NOT EXISTS (SELECT 1 FROM tool_install_required_by r WHERE r.tool_install_id = ti.id)`,
		)
		if err != nil {
			return &SerializationError{Table: "tool_install", Cause: err}
		}
		cutoff := time.Now().Add(-minAge)
		for rows.Next() {
			var ti ToolInstall
			var caskInt int
			var lastUsed sql.NullString
			var createdAt string
			if err := rows.Scan(&ti.ID, &ti.Tool, &ti.ToolType, &ti.Version, &ti.BinPath, &ti.InstallPath, &caskInt, &lastUsed, &createdAt); err != nil {
				rows.Close()
				return &SerializationError{Table: "tool_install", Cause: err}
			}
			ti.Cask = caskInt != 0
			ti.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
			aged := ti.CreatedAt
			if lastUsed.Valid {
				if t, perr := time.Parse(time.RFC3339, lastUsed.String); perr == nil {
					ti.LastUsedAt = &t
					aged = t
				}
			}
			if aged.After(cutoff) {
				continue
			}
			removed = append(removed, ti)
		}
		rows.Close()
		for _, ti := range removed {
			if _, err := tx.Exec(`DELETE FROM tool_install WHERE id = ?`, ti.ID); err != nil {
				return &SerializationError{Table: "tool_install", Cause: err}
			}
		}
		return nil
	})
	return removed, err
}

// ListToolInstallsForWorkdir returns every ToolInstall currently required
// by workdirID, the authoritative source for reference-counted cleanup
// (spec.md §4.6's end-of-up diff and `down`'s decrement), independent of
// whatever an EnvVersion snapshot happens to record.
func (s *Store) ListToolInstallsForWorkdir(workdirID string) ([]ToolInstall, error) {
	var installs []ToolInstall
	err := s.withShared(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT ti.id, ti.tool, ti.tool_type, ti.version, ti.bin_path, ti.install_path, ti.cask
			 FROM tool_install ti
			 JOIN tool_install_required_by r ON r.tool_install_id = ti.id
			 WHERE r.workdir_id = ?`,
			workdirID,
		)
		if err != nil {
			return &SerializationError{Table: "tool_install", Cause: err}
		}
		defer rows.Close()
		for rows.Next() {
			var ti ToolInstall
			var caskInt int
			if err := rows.Scan(&ti.ID, &ti.Tool, &ti.ToolType, &ti.Version, &ti.BinPath, &ti.InstallPath, &caskInt); err != nil {
				return &SerializationError{Table: "tool_install", Cause: err}
			}
			ti.Cask = caskInt != 0
			installs = append(installs, ti)
		}
		return rows.Err()
	})
	return installs, err
}

// FindToolInstall locates an already-installed matching version for reuse,
// per the Tool Step Engine's check-cache step (spec.md §4.1).
func (s *Store) FindToolInstall(tool, toolType, version string, cask bool) (*ToolInstall, error) {
	var ti ToolInstall
	var lastUsed sql.NullString
	var createdAt string
	err := s.withShared(func(db *sql.DB) error {
		row := db.QueryRow(
			`SELECT id, tool, tool_type, version, bin_path, install_path, cask, last_used_at, created_at
			 FROM tool_install WHERE tool=? AND tool_type=? AND version=? AND cask=?`,
			tool, toolType, version, boolToInt(cask),
		)
		var caskInt int
		if err := row.Scan(&ti.ID, &ti.Tool, &ti.ToolType, &ti.Version, &ti.BinPath, &ti.InstallPath, &caskInt, &lastUsed, &createdAt); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return &SerializationError{Table: "tool_install", Cause: err}
		}
		ti.Cask = caskInt != 0
		ti.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if lastUsed.Valid {
			t, _ := time.Parse(time.RFC3339, lastUsed.String)
			ti.LastUsedAt = &t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ti.ID == 0 {
		return nil, nil
	}
	return &ti, nil
}

// TouchToolInstall updates last_used_at, used to age out unreferenced
// installs during orphan sweeps in a future TTL pass.
func (s *Store) TouchToolInstall(id int64) error {
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE tool_install SET last_used_at = ? WHERE id = ?`, nowRFC3339(), id)
		if err != nil {
			return &SerializationError{Table: "tool_install", Cause: err}
		}
		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
