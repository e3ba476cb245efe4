package cache

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// lockWatchdog bounds how long a caller waits to acquire the store's
// advisory file lock before giving up, per spec.md §7: a stuck lock (e.g.
// a crashed holder on a network filesystem) must fail loudly rather than
// hang a command forever.
const lockWatchdog = 30 * time.Second

// shared acquires a shared (read) lock on the store's lock file, used for
// any operation that only reads rows. Multiple readers may hold it at
// once; it blocks while an exclusive writer holds the lock.
func shared(l *flock.Flock) error {
	return acquire(l, l.TryRLockContext, "shared")
}

// exclusive acquires an exclusive (write) lock on the store's lock file,
// used for any operation that inserts, updates, or deletes rows.
func exclusive(l *flock.Flock) error {
	return acquire(l, l.TryLockContext, "exclusive")
}

func acquire(l *flock.Flock, tryFn func(context.Context, time.Duration) (bool, error), mode string) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockWatchdog)
	defer cancel()

	ok, err := tryFn(ctx, 50*time.Millisecond)
	if err != nil {
		return &IOError{Op: "lock:" + mode, Path: l.Path(), Cause: err}
	}
	if !ok {
		return &LockTimeoutError{Path: l.Path(), Mode: mode}
	}
	return nil
}

func release(l *flock.Flock) {
	_ = l.Unlock()
}
