package oglog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// writerDaemon is the sole writer of the file sink: one goroutine per
// process draining the record queue in batches. Every batch append and
// every rotation happens under the advisory file lock, so multiple
// processes can share the log directory without interleaving partial
// lines. The file is reopened per batch, which also makes a rotation done
// by a sibling process transparent.
type writerDaemon struct {
	basePath    string
	lockPath    string
	maxBytes    int64
	rotateEvery time.Duration
	retention   retentionPolicy
	lockTimeout time.Duration

	queue *recordQueue

	// openedAt approximates the active file's birth for time rotation;
	// seeded from the existing file's mtime at startup.
	openedAt time.Time

	drainInterval time.Duration
	batchSize     int

	quit chan struct{}
	done chan struct{}

	lastDropReport   time.Time
	lastDropCount    uint64
	lastWriteTrouble time.Time
}

type retentionPolicy struct {
	count int
	unit  string
}

func (p retentionPolicy) maxAge() time.Duration {
	switch p.unit {
	case retainHours:
		return time.Duration(p.count) * time.Hour
	case retainWeeks:
		return time.Duration(p.count) * 7 * 24 * time.Hour
	default:
		return time.Duration(p.count) * 24 * time.Hour
	}
}

func newWriterDaemon(cfg *Config, queue *recordQueue) *writerDaemon {
	base := filepath.Join(cfg.LogDir, cfg.ServiceName+".log")
	d := &writerDaemon{
		basePath:      base,
		lockPath:      strings.TrimSuffix(base, ".log") + ".lock",
		maxBytes:      cfg.maxBytes(),
		rotateEvery:   cfg.RotateEvery,
		retention:     retentionPolicy{count: cfg.RetentionCount, unit: cfg.RetentionType},
		lockTimeout:   cfg.LockTimeout,
		queue:         queue,
		openedAt:      time.Now(),
		drainInterval: defaultDrainInterval,
		batchSize:     defaultBatchSize,
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	// Resume rotation state from the existing active file, if any.
	if st, err := os.Stat(base); err == nil {
		d.openedAt = st.ModTime()
	}
	return d
}

func (d *writerDaemon) start() {
	go d.run()
}

func (d *writerDaemon) run() {
	defer close(d.done)

	ticker := time.NewTicker(d.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.quit:
			d.flush()
			return
		case <-d.queue.notify:
			d.flush()
		case <-ticker.C:
			// Idle tick: time rotation and drop reporting run even with no
			// traffic.
			d.flush()
			d.checkIdleRotation()
		}
		d.reportDrops()
	}
}

// flush drains the queue completely, one bounded batch at a time. A batch
// that cannot reach disk is re-queued and retried on the next cycle.
func (d *writerDaemon) flush() {
	for {
		batch := d.queue.drain(d.batchSize)
		if len(batch) == 0 {
			return
		}
		if err := d.writeBatch(batch); err != nil {
			d.queue.requeue(batch)
			d.complain("write skipped: %v", err)
			return
		}
	}
}

// writeBatch appends a batch under the file lock, rotating whenever the
// next record would push the active file over the size threshold, so no
// file ever exceeds it by more than one record.
func (d *writerDaemon) writeBatch(batch [][]byte) error {
	lock, err := acquireFileLock(d.lockPath, d.lockTimeout)
	if err != nil {
		return err
	}
	defer lock.release()

	size := d.activeSize()
	if size > 0 && d.rotateEvery > 0 && time.Since(d.openedAt) >= d.rotateEvery {
		if d.rotate() {
			size = 0
		}
	}

	f, err := os.OpenFile(d.basePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		writeErrors.Inc()
		return fmt.Errorf("open %s: %w", d.basePath, err)
	}
	for _, line := range batch {
		if size > 0 && size+int64(len(line)) > d.maxBytes {
			if err := f.Close(); err != nil {
				writeErrors.Inc()
				return fmt.Errorf("close %s: %w", d.basePath, err)
			}
			if d.rotate() {
				size = 0
			}
			f, err = os.OpenFile(d.basePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				writeErrors.Inc()
				return fmt.Errorf("open %s: %w", d.basePath, err)
			}
		}
		if _, err := f.Write(line); err != nil {
			_ = f.Close()
			writeErrors.Inc()
			return fmt.Errorf("append %s: %w", d.basePath, err)
		}
		size += int64(len(line))
	}
	if err := f.Close(); err != nil {
		writeErrors.Inc()
		return fmt.Errorf("close %s: %w", d.basePath, err)
	}
	recordsWritten.Add(float64(len(batch)))
	return nil
}

// activeSize re-reads the active file's size from disk, with the lock
// held, so a rotation done by a sibling process since the last batch is
// respected.
func (d *writerDaemon) activeSize() int64 {
	st, err := os.Stat(d.basePath)
	if err != nil {
		// No active file yet, or it was just rotated by another process.
		d.openedAt = time.Now()
		return 0
	}
	return st.Size()
}

// rotate renames the active file aside and applies retention. Called with
// the lock held; reports whether the rename took.
func (d *writerDaemon) rotate() bool {
	// Stamp with microseconds so several rotations in one second cannot
	// collide; the fractional-seconds dot becomes an underscore.
	stamp := strings.Replace(time.Now().Format(rotatedTimeFormat), ".", "_", 1)
	rotated := strings.TrimSuffix(d.basePath, ".log") + "." + stamp + ".log"
	if err := os.Rename(d.basePath, rotated); err != nil {
		// A sibling process won the race; the next stat starts fresh.
		d.complain("rotation failed: %v", err)
		return false
	}
	d.openedAt = time.Now()
	rotationsTotal.Inc()
	d.applyRetention()
	return true
}

// checkIdleRotation runs the time-rotation check when no writes arrive.
func (d *writerDaemon) checkIdleRotation() {
	if d.rotateEvery <= 0 || time.Since(d.openedAt) < d.rotateEvery {
		return
	}
	lock, err := acquireFileLock(d.lockPath, d.lockTimeout)
	if err != nil {
		return
	}
	defer lock.release()
	if size := d.activeSize(); size > 0 && time.Since(d.openedAt) >= d.rotateEvery {
		d.rotate()
	}
}

// applyRetention enumerates rotated files and deletes per policy: "files"
// keeps the count most recent, time units delete files older than the
// configured age. Deletion failures are reported and do not abort.
func (d *writerDaemon) applyRetention() {
	rotated, err := d.rotatedFiles()
	if err != nil {
		d.complain("retention scan failed: %v", err)
		return
	}

	var doomed []string
	if d.retention.unit == retainFiles {
		if len(rotated) > d.retention.count {
			for _, f := range rotated[d.retention.count:] {
				doomed = append(doomed, f.path)
			}
		}
	} else {
		cutoff := time.Now().Add(-d.retention.maxAge())
		for _, f := range rotated {
			if f.modTime.Before(cutoff) {
				doomed = append(doomed, f.path)
			}
		}
	}

	for _, path := range doomed {
		if err := os.Remove(path); err != nil {
			d.complain("retention delete %s: %v", path, err)
			continue
		}
		retentionDeleted.Inc()
	}
}

type rotatedFile struct {
	path    string
	modTime time.Time
}

// rotatedFiles returns the rotated set, newest first.
func (d *writerDaemon) rotatedFiles() ([]rotatedFile, error) {
	pattern := strings.TrimSuffix(d.basePath, ".log") + ".*.log"
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	files := make([]rotatedFile, 0, len(matches))
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil {
			continue
		}
		files = append(files, rotatedFile{path: m, modTime: st.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})
	return files, nil
}

// reportDrops surfaces the queue's drop counter at most every 10 seconds.
func (d *writerDaemon) reportDrops() {
	dropped := d.queue.droppedCount()
	if dropped == d.lastDropCount || time.Since(d.lastDropReport) < 10*time.Second {
		return
	}
	fmt.Fprintf(os.Stderr, "oglog: %d records dropped under queue overload (total)\n", dropped)
	d.lastDropCount = dropped
	d.lastDropReport = time.Now()
}

// complain writes a throttled one-line notice to stderr. The daemon cannot
// log through the sink it is failing to write.
func (d *writerDaemon) complain(format string, args ...interface{}) {
	if time.Since(d.lastWriteTrouble) < time.Second {
		return
	}
	d.lastWriteTrouble = time.Now()
	fmt.Fprintf(os.Stderr, "oglog: "+format+"\n", args...)
}

// stop drains the remaining queue within grace and terminates the daemon.
func (d *writerDaemon) stop(grace time.Duration) {
	close(d.quit)
	select {
	case <-d.done:
		// The daemon has exited; sweep anything queued after its final
		// flush.
		if batch := d.queue.drain(0); len(batch) > 0 {
			_ = d.writeBatch(batch)
		}
	case <-time.After(grace):
		// The daemon is still mid-write and owns the file state; leave the
		// remaining queue to it rather than racing a second writer.
	}
}
