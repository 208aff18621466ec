// Package lockfile serializes ignr processes that touch the same files.
//
// The managed templates directory and every ignore file ignr writes are
// guarded by an advisory lock held in a separate file, so two concurrent
// "ignr generate" or "ignr sync" runs never interleave their writes.
package lockfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// retryDelay is how often LockContext polls a held lock.
const retryDelay = 50 * time.Millisecond

// Lock is a cross-process advisory lock backed by gofrs/flock.
type Lock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New creates a lock whose state lives in the file at path.
func New(path string) *Lock {
	return &Lock{
		path:  path,
		flock: flock.New(path),
	}
}

// ForDir returns the lock guarding the contents of dir. The lock file is
// a sibling ("<dir>.lock") so it never shows up in directory listings.
func ForDir(dir string) *Lock {
	return New(filepath.Clean(dir) + ".lock")
}

// ForTarget returns the lock guarding a single output file. Lock files
// live in lockDir, named after a digest of the target's absolute path,
// so nothing is left behind next to the target.
func ForTarget(lockDir, target string) *Lock {
	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}
	sum := sha256.Sum256([]byte(abs))
	return New(filepath.Join(lockDir, hex.EncodeToString(sum[:8])+".lock"))
}

// Lock blocks until the lock is acquired.
func (l *Lock) Lock() error {
	if err := l.ensureDir(); err != nil {
		return err
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	l.locked = true
	return nil
}

// LockContext polls until the lock is acquired or ctx is done.
func (l *Lock) LockContext(ctx context.Context) error {
	if err := l.ensureDir(); err != nil {
		return err
	}
	ok, err := l.flock.TryLockContext(ctx, retryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("failed to acquire lock %s", l.path)
	}
	l.locked = true
	return nil
}

// TryLock attempts to take the lock without blocking.
func (l *Lock) TryLock() (bool, error) {
	if err := l.ensureDir(); err != nil {
		return false, err
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Calling it on an unlocked Lock is a no-op.
func (l *Lock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Do runs fn while holding the lock.
func (l *Lock) Do(ctx context.Context, fn func() error) error {
	if err := l.LockContext(ctx); err != nil {
		return err
	}
	defer func() { _ = l.Unlock() }()
	return fn()
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// IsLocked reports whether this Lock currently holds the lock.
func (l *Lock) IsLocked() bool { return l.locked }

func (l *Lock) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	return nil
}
