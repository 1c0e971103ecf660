// Package repolock implements the exclusive, OS-level advisory lock that
// guards a repository during mutation. It is the single mutual-exclusion
// boundary between concurrent rpm-tool invocations against the same
// repository root; within one process the reconciler is already
// single-writer.
package repolock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// lockFileName is the fixed name of the lock file under a repository root.
const lockFileName = ".repodata.lock"

// ErrLocked is returned by Acquire when another process already holds the
// exclusive lock. Callers map this to a LockBusy-kind error and fail fast,
// per the fail-fast-on-LockBusy propagation rule.
var ErrLocked = errors.New("repolock: repository is locked by another process")

// Lock represents a held advisory lock on a repository's .repodata.lock
// file. The zero value is not usable; obtain one via Acquire.
type Lock struct {
	f *os.File
}

// Acquire creates (if absent) and exclusively locks <root>/.repodata.lock.
// It does not block: if another process holds the lock, it returns
// ErrLocked immediately rather than waiting.
func Acquire(root string) (*Lock, error) {
	path := root + string(os.PathSeparator) + lockFileName
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("repolock: open %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("repolock: flock %s: %w", path, err)
	}

	return &Lock{f: f}, nil
}

// Release drops the lock and closes the underlying file descriptor.
// Releasing without publishing leaves no partial repomd.xml behind; the
// caller is responsible for not having written one.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}
