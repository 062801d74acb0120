package filestore

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock is a cross-process advisory lock on the store's lock file
type FileLock interface {
	// TryLockContext acquires the exclusive lock, retrying every retryInterval
	// until ctx is done
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)

	// TryRLockContext acquires the shared lock, retrying every retryInterval
	// until ctx is done
	TryRLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)

	// Unlock releases whichever lock is held
	Unlock() error
}

// FileLockFactory creates FileLock instances
type FileLockFactory interface {
	New(path string) FileLock
}

// FlockFactory creates locks backed by github.com/gofrs/flock
type FlockFactory struct{}

// New implements FileLockFactory.New. *flock.Flock satisfies FileLock directly.
func (FlockFactory) New(path string) FileLock {
	return flock.New(path)
}
