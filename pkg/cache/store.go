// Package cache implements the on-disk relational store backing omni's
// tool installs, environment versions, plugin index, release cache,
// trust decisions, and prompt answers (spec.md §3-§4).
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/omnicli/omni/pkg/logger"
)

var log = logger.New("cache:store")

// Store is a single process-wide handle onto the cache database file and
// its companion advisory lock file. All row-level accessors on it take
// the shared or exclusive lock internally, so callers never acquire or
// release locks directly.
type Store struct {
	path string
	db   *sql.DB
	lock *flock.Flock
}

// Open opens (creating if absent) the SQLite store file at path, applies
// the schema DDL, and returns a ready Store. A store file that fails an
// integrity check is renamed aside to path+".corrupt" (replacing any
// earlier one) and reinitialized empty rather than left to wedge every future command,
// per spec.md §7's CorruptionError recovery.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: filepath.Dir(path), Cause: err}
	}

	lockPath := path + ".lock"
	fl := flock.New(lockPath)
	if err := exclusive(fl); err != nil {
		return nil, err
	}
	defer release(fl)

	db, err := openAndVerify(path)
	if err != nil {
		var corrupt *CorruptionError
		if errors.As(err, &corrupt) {
			log.Printf("store at %s failed integrity check, reinitializing: %v", path, err)
			if rerr := quarantine(path); rerr != nil {
				return nil, rerr
			}
			db, err = openAndVerify(path)
		}
		if err != nil {
			return nil, err
		}
	}

	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, &IOError{Op: "migrate", Path: path, Cause: err}
	}

	s := &Store{path: path, db: db, lock: flock.New(lockPath)}
	if err := s.recordVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func openAndVerify(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Cause: err}
	}
	db.SetMaxOpenConns(1) // single-writer file, avoid SQLITE_BUSY churn

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		db.Close()
		return nil, &CorruptionError{Path: path, Cause: err}
	}
	if result != "ok" {
		db.Close()
		return nil, &CorruptionError{Path: path, Cause: fmt.Errorf("integrity_check: %s", result)}
	}
	return db, nil
}

// quarantine renames a corrupt store file aside so Open can start fresh.
func quarantine(path string) error {
	dest := path + ".corrupt"
	if err := os.Rename(path, dest); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "quarantine", Path: path, Cause: err}
	}
	return nil
}

func (s *Store) recordVersion() error {
	_, err := s.db.Exec(
		`INSERT INTO metadata(key, value) VALUES('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", schemaVersion),
	)
	if err != nil {
		return &IOError{Op: "record-version", Path: s.path, Cause: err}
	}
	return nil
}

// Close releases the underlying database handle. The lock file itself is
// left on disk; flock locks are released on process exit regardless.
func (s *Store) Close() error {
	return s.db.Close()
}

// withShared runs fn while holding the store's shared (read) lock.
func (s *Store) withShared(fn func(*sql.DB) error) error {
	if err := shared(s.lock); err != nil {
		return err
	}
	defer release(s.lock)
	return fn(s.db)
}

// withExclusive runs fn inside a transaction while holding the store's
// exclusive (write) lock, committing on success and rolling back on
// error.
func (s *Store) withExclusive(fn func(*sql.Tx) error) error {
	if err := exclusive(s.lock); err != nil {
		return err
	}
	defer release(s.lock)

	tx, err := s.db.Begin()
	if err != nil {
		return &IOError{Op: "begin-tx", Path: s.path, Cause: err}
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &IOError{Op: "commit-tx", Path: s.path, Cause: err}
	}
	return nil
}
