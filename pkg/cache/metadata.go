package cache

import "database/sql"

// GetMetadata reads a single key from the metadata table, returning ""
// and ok=false if it was never set.
func (s *Store) GetMetadata(key string) (value string, ok bool, err error) {
	err = s.withShared(func(db *sql.DB) error {
		row := db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key)
		if serr := row.Scan(&value); serr != nil {
			if serr == sql.ErrNoRows {
				return nil
			}
			return &SerializationError{Table: "metadata", Cause: serr}
		}
		ok = true
		return nil
	})
	return value, ok, err
}

// SetMetadata upserts a single key in the metadata table.
func (s *Store) SetMetadata(key, value string) error {
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO metadata(key, value) VALUES(?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value,
		)
		if err != nil {
			return &SerializationError{Table: "metadata", Cause: err}
		}
		return nil
	})
}
