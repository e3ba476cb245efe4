package cache

import "database/sql"

// AddAsdfPlugin records an asdf plugin by name, with its source url if
// known. Re-adding an already-known plugin refreshes url when a
// non-empty one is supplied, and otherwise leaves the row untouched.
func (s *Store) AddAsdfPlugin(name, url string) error {
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO asdf_plugin(name, url, added_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET url = CASE WHEN excluded.url != '' THEN excluded.url ELSE asdf_plugin.url END`,
			name, url, nowRFC3339(),
		)
		if err != nil {
			return &SerializationError{Table: "asdf_plugin", Cause: err}
		}
		return nil
	})
}

// ListAsdfPlugins returns every known asdf plugin name and url.
func (s *Store) ListAsdfPlugins() (map[string]string, error) {
	plugins := map[string]string{}
	err := s.withShared(func(db *sql.DB) error {
		rows, err := db.Query(`SELECT name, url FROM asdf_plugin ORDER BY name`)
		if err != nil {
			return &SerializationError{Table: "asdf_plugin", Cause: err}
		}
		defer rows.Close()
		for rows.Next() {
			var name, url string
			if err := rows.Scan(&name, &url); err != nil {
				return &SerializationError{Table: "asdf_plugin", Cause: err}
			}
			plugins[name] = url
		}
		return rows.Err()
	})
	return plugins, err
}
