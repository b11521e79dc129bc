//go:build unix

package linkstore

import (
	"syscall"
)

func (l *fileLock) lock(mode LockMode) error {
	op := syscall.LOCK_SH
	if mode == LockExclusive {
		op = syscall.LOCK_EX
	}
	// Blocking: callers wait for the holder to commit
	for {
		err := syscall.Flock(int(l.f.Fd()), op)
		if err != syscall.EINTR {
			return err
		}
	}
}

func (l *fileLock) unlock() error {
	return syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
}
