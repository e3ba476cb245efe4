package cache

import (
	"database/sql"
	"encoding/json"
)

// PluginIndexEntry records a discovered commands-from-path executable or
// commands-from-config entry so lookups don't re-walk the filesystem or
// re-parse config on every dispatch (spec.md §3).
type PluginIndexEntry struct {
	Path     string
	Category string
	Name     string
	Metadata map[string]any
}

// PutPluginIndexEntry upserts one entry, keyed by its canonical path.
func (s *Store) PutPluginIndexEntry(e PluginIndexEntry) error {
	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return &SerializationError{Table: "plugin_index", Cause: err}
	}
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO plugin_index(path, category, name, metadata_json, updated_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(path) DO UPDATE SET category = excluded.category, name = excluded.name, metadata_json = excluded.metadata_json, updated_at = excluded.updated_at`,
			e.Path, e.Category, e.Name, string(metaJSON), nowRFC3339(),
		)
		if err != nil {
			return &SerializationError{Table: "plugin_index", Cause: err}
		}
		return nil
	})
}

// ListPluginIndex returns every indexed entry, used to rebuild the
// dispatcher's FromPath/FromConfig command set without rescanning disk.
func (s *Store) ListPluginIndex() ([]PluginIndexEntry, error) {
	var entries []PluginIndexEntry
	err := s.withShared(func(db *sql.DB) error {
		rows, err := db.Query(`SELECT path, category, name, metadata_json FROM plugin_index`)
		if err != nil {
			return &SerializationError{Table: "plugin_index", Cause: err}
		}
		defer rows.Close()
		for rows.Next() {
			var e PluginIndexEntry
			var metaJSON string
			var category sql.NullString
			if err := rows.Scan(&e.Path, &category, &e.Name, &metaJSON); err != nil {
				return &SerializationError{Table: "plugin_index", Cause: err}
			}
			e.Category = category.String
			if err := json.Unmarshal([]byte(metaJSON), &e.Metadata); err != nil {
				return &SerializationError{Table: "plugin_index", Cause: err}
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	return entries, err
}

// RemovePluginIndexEntry drops a stale entry, e.g. when its source path no
// longer exists on disk.
func (s *Store) RemovePluginIndexEntry(path string) error {
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM plugin_index WHERE path = ?`, path)
		if err != nil {
			return &SerializationError{Table: "plugin_index", Cause: err}
		}
		return nil
	})
}
