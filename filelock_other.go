//go:build !unix

package oglog

import (
	"errors"
	"os"
	"time"
)

var errLockTimeout = errors.New("file lock acquisition timed out")

// Advisory flock is unavailable on this platform; writes within a process
// are still serialized by the single writer daemon, but cross-process
// exclusion is not provided.
type fileLock struct {
	f *os.File
}

func acquireFileLock(path string, _ time.Duration) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &fileLock{f: f}, nil
}

func (l *fileLock) release() {
	_ = l.f.Close()
}
