// OS-level file locking for cross-process coordination.
//
// Each location has a companion "<location>.lock" file that is never
// renamed or replaced, so every process contending for the region locks
// the same inode even though the region file itself is swapped on every
// commit. flock(2) locks belong to the open file description, which means
// two goroutines in one process that each open the lock file also exclude
// each other.
package linkstore

import (
	"os"
	"sync"
)

// LockMode selects shared (read) or exclusive (write) locking.
type LockMode int

const (
	LockShared LockMode = iota
	LockExclusive
)

// fileLock holds an flock on an open lock file. The mu field serialises
// the flock syscall against release so Fd() is never used after Close.
type fileLock struct {
	mu sync.Mutex
	f  *os.File
}

// acquire opens name under root and blocks until the lock is granted.
func acquire(root *os.Root, name string, mode LockMode) (*fileLock, error) {
	f, err := root.OpenFile(name, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	l := &fileLock{f: f}
	if err := l.Lock(mode); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// Lock acquires a shared or exclusive flock. Returns nil immediately
// once the lock has been released.
func (l *fileLock) Lock(mode LockMode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.lock(mode)
}

// release drops the flock and closes the lock file. Safe to call twice.
func (l *fileLock) release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.unlock()
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
