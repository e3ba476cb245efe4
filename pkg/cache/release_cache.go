package cache

import (
	"database/sql"
	"encoding/json"
	"time"
)

// GetReleaseCache returns the cached release-list payload for
// (source, repository) decoded into out, reporting found=false if it's
// absent or past its expiry.
func (s *Store) GetReleaseCache(source, repository string, out any) (bool, error) {
	found := false
	var payload, expiresAt string
	err := s.withShared(func(db *sql.DB) error {
		err := db.QueryRow(
			`SELECT payload_json, expires_at FROM release_cache WHERE source = ? AND repository = ?`,
			source, repository,
		).Scan(&payload, &expiresAt)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return &SerializationError{Table: "release_cache", Cause: err}
		}
		if exp, perr := time.Parse(time.RFC3339, expiresAt); perr == nil && time.Now().UTC().After(exp) {
			return nil
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, &SerializationError{Table: "release_cache", Cause: err}
	}
	return true, nil
}

// PutReleaseCache stores a release-list payload for (source, repository)
// with an expiry ttl from now, per spec.md §4.1's TTL-based release cache.
func (s *Store) PutReleaseCache(source, repository string, payload any, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return &SerializationError{Table: "release_cache", Cause: err}
	}
	now := time.Now().UTC()
	expires := now.Add(ttl).Format(time.RFC3339)
	return s.withExclusive(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO release_cache(source, repository, payload_json, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(source, repository) DO UPDATE SET payload_json = excluded.payload_json, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
			source, repository, string(data), now.Format(time.RFC3339), expires,
		)
		if err != nil {
			return &SerializationError{Table: "release_cache", Cause: err}
		}
		return nil
	})
}
