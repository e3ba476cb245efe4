package cache

import "database/sql"

// AddHomebrewTap records name as a tapped homebrew repository, idempotent
// on repeated taps of the same name.
func (s *Store) AddHomebrewTap(name string) error {
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO homebrew_tap(name, added_at) VALUES (?, ?)
			 ON CONFLICT(name) DO NOTHING`,
			name, nowRFC3339(),
		)
		if err != nil {
			return &SerializationError{Table: "homebrew_tap", Cause: err}
		}
		return nil
	})
}

// ListHomebrewTaps returns every tap on record, for `omni status`/tidy
// reporting.
func (s *Store) ListHomebrewTaps() ([]string, error) {
	var names []string
	err := s.withShared(func(db *sql.DB) error {
		rows, err := db.Query(`SELECT name FROM homebrew_tap ORDER BY name`)
		if err != nil {
			return &SerializationError{Table: "homebrew_tap", Cause: err}
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return &SerializationError{Table: "homebrew_tap", Cause: err}
			}
			names = append(names, name)
		}
		return rows.Err()
	})
	return names, err
}
