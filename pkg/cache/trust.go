package cache

import "database/sql"

// IsTrusted reports whether workdirID has previously been approved to run
// untrusted-by-default operations (`up`, config-sourced commands), per
// spec.md §7's trust gate.
func (s *Store) IsTrusted(workdirID string) (bool, error) {
	var trusted bool
	err := s.withShared(func(db *sql.DB) error {
		var x string
		err := db.QueryRow(`SELECT trusted_at FROM workdir_trusted WHERE workdir_id = ?`, workdirID).Scan(&x)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return &SerializationError{Table: "workdir_trusted", Cause: err}
		}
		trusted = true
		return nil
	})
	return trusted, err
}

// SetTrusted records workdirID as trusted from now on.
func (s *Store) SetTrusted(workdirID string) error {
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO workdir_trusted(workdir_id, trusted_at) VALUES (?, ?)
			 ON CONFLICT(workdir_id) DO UPDATE SET trusted_at = excluded.trusted_at`,
			workdirID, nowRFC3339(),
		)
		if err != nil {
			return &SerializationError{Table: "workdir_trusted", Cause: err}
		}
		return nil
	})
}

// CheckFingerprint compares want against the stored fingerprint for
// (workdirID, kind) and reports whether they match. A missing stored
// fingerprint never matches, forcing the first-run prompt.
func (s *Store) CheckFingerprint(workdirID, kind, want string) (bool, error) {
	var match bool
	err := s.withShared(func(db *sql.DB) error {
		var got string
		err := db.QueryRow(
			`SELECT fingerprint FROM workdir_fingerprints WHERE workdir_id = ? AND kind = ?`,
			workdirID, kind,
		).Scan(&got)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return &SerializationError{Table: "workdir_fingerprints", Cause: err}
		}
		match = got == want
		return nil
	})
	return match, err
}

// UpdateFingerprint records the current fingerprint for (workdirID, kind),
// called after the user has been re-prompted and confirmed.
func (s *Store) UpdateFingerprint(workdirID, kind, fingerprint string) error {
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO workdir_fingerprints(workdir_id, kind, fingerprint, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(workdir_id, kind) DO UPDATE SET fingerprint = excluded.fingerprint, updated_at = excluded.updated_at`,
			workdirID, kind, fingerprint, nowRFC3339(),
		)
		if err != nil {
			return &SerializationError{Table: "workdir_fingerprints", Cause: err}
		}
		return nil
	})
}
