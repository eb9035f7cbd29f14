//go:build unix

package oglog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLock_BoundedWait(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.lock")

	held, err := acquireFileLock(path, time.Second)
	require.NoError(t, err)
	defer held.release()

	start := time.Now()
	_, err = acquireFileLock(path, 50*time.Millisecond)
	assert.ErrorIs(t, err, errLockTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFileLock_ReleaseUnblocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.lock")

	held, err := acquireFileLock(path, time.Second)
	require.NoError(t, err)
	held.release()

	again, err := acquireFileLock(path, 50*time.Millisecond)
	require.NoError(t, err)
	again.release()
}

// A write attempt that cannot take the lock must leave the batch queued
// for the next cycle rather than losing it.
func TestWriterDaemon_LockContentionRequeues(t *testing.T) {
	dir := t.TempDir()
	cfg := testWriterConfig(dir)
	cfg.LockTimeout = 50 * time.Millisecond

	q := newRecordQueue(cfg.QueueCapacity, false)
	d := newWriterDaemon(cfg, q)
	d.lockTimeout = cfg.LockTimeout

	held, err := acquireFileLock(d.lockPath, time.Second)
	require.NoError(t, err)

	q.push([]byte("queued\n"))
	d.flush()
	assert.Equal(t, 1, q.len(), "batch must be re-queued while the lock is held")

	held.release()
	d.flush()
	assert.Equal(t, 0, q.len())
	assert.Equal(t, []string{"queued"}, readLogLines(t, d.basePath))
}

// When the grace period expires before the daemon gets the lock, stop must
// not start a second writer over the daemon's file state; the record stays
// queued and nothing reaches disk.
func TestWriterDaemon_StopGraceExpiry(t *testing.T) {
	dir := t.TempDir()
	cfg := testWriterConfig(dir)
	cfg.LockTimeout = 50 * time.Millisecond
	q := newRecordQueue(cfg.QueueCapacity, false)
	d := newWriterDaemon(cfg, q)
	d.lockTimeout = cfg.LockTimeout

	held, err := acquireFileLock(d.lockPath, time.Second)
	require.NoError(t, err)
	defer held.release()

	d.start()
	q.push([]byte("stuck\n"))
	d.stop(10 * time.Millisecond)

	require.Eventually(t, func() bool { return q.len() == 1 }, time.Second, 10*time.Millisecond)
	assert.NoFileExists(t, d.basePath)
}
