// Package lock keeps a second interactive instance from starting.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked means another instance holds the lock
var ErrLocked = errors.New("another instance is already running")

// Lock is a held instance lock
type Lock struct {
	flock *flock.Flock
}

// DefaultPath returns the lock file location in the user's runtime dir,
// falling back to the cache dir.
func DefaultPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		var err error
		if dir, err = os.UserCacheDir(); err != nil {
			dir = os.TempDir()
		}
	}
	return filepath.Join(dir, "softcenter", "softcenter.lock")
}

// Acquire takes the lock at path without blocking
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, path)
	}
	return &Lock{flock: fl}, nil
}

// Path is the lock file
func (l *Lock) Path() string {
	return l.flock.Path()
}

// Release unlocks. Calling it more than once is harmless.
func (l *Lock) Release() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
