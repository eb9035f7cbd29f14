//go:build unix

package oglog

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// errLockTimeout marks a bounded-wait lock acquisition that gave up; the
// daemon re-queues the batch and retries on the next drain cycle instead of
// blocking the writer indefinitely.
var errLockTimeout = errors.New("file lock acquisition timed out")

// fileLock is an advisory flock on a sidecar lock file, scoped to the
// active log file. It serializes writes and rotations across the OS
// processes sharing one log directory.
type fileLock struct {
	fd int
}

// acquireFileLock tries LOCK_EX|LOCK_NB in a short retry loop bounded by
// timeout. The lock file is created on first use and never removed.
func acquireFileLock(path string, timeout time.Duration) (*fileLock, error) {
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err = unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &fileLock{fd: fd}, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("flock %s: %w", path, err)
		}
		if time.Now().After(deadline) {
			_ = unix.Close(fd)
			lockTimeouts.Inc()
			return nil, errLockTimeout
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (l *fileLock) release() {
	_ = unix.Flock(l.fd, unix.LOCK_UN)
	_ = unix.Close(l.fd)
}
