package runlock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"shuttersort/internal/services"
)

const lockFileName = ".shuttersort.lock"

// Lock guards a target tree against concurrent runs. Two processes organizing
// into the same target would race on duplicate resolution, so the second one
// is turned away instead.
type Lock struct {
	path string
	lock *flock.Flock
}

// New prepares a lock for the given target directory without acquiring it.
func New(targetDir string) *Lock {
	path := filepath.Join(targetDir, lockFileName)
	return &Lock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock, failing immediately when another run holds it.
func (l *Lock) Acquire() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrTransient, "runlock", "acquire",
			fmt.Sprintf("lock %s", l.path), err)
	}
	if !ok {
		return services.Wrap(services.ErrValidation, "runlock", "acquire",
			fmt.Sprintf("another run is already organizing into this target (lock %s held)", l.path), nil)
	}
	return nil
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}
