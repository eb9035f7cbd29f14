package oglog

import (
	"context"
	"math"
	"runtime"

	"go.uber.org/atomic"
)

// MemoryStats reports a task's allocation usage in fractional megabytes,
// rounded to 3 decimal places. AllocatedMB is the delta against the
// session baseline, PeakMB the maximum heap observed during the session
// (monotonically non-decreasing), CurrentMB the heap at the query point.
type MemoryStats struct {
	AllocatedMB float64
	PeakMB      float64
	CurrentMB   float64
}

// memorySession tracks one task's allocation window. The session pointer
// travels on the ctx, so tracking is strictly opt-in per task; reading the
// heap on every sample is the documented cost of enabling it.
type memorySession struct {
	baseline uint64
	peak     atomic.Uint64
	active   atomic.Bool
}

// StartMemoryTracking captures an allocation baseline for the current task
// and returns a context carrying the tracking session.
func StartMemoryTracking(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	cur := heapInUse()
	sess := &memorySession{baseline: cur}
	sess.peak.Store(cur)
	sess.active.Store(true)
	return context.WithValue(ctx, memorySessionKey, sess)
}

// SampleMemory returns a live snapshot without stopping tracking. With no
// active session it returns a zero-valued result rather than failing.
func SampleMemory(ctx context.Context) MemoryStats {
	sess := sessionFrom(ctx)
	if sess == nil || !sess.active.Load() {
		return MemoryStats{}
	}
	return sess.snapshot()
}

// StopMemoryTracking takes the final snapshot, disables the session and
// returns the result. Subsequent samples on the same ctx are zero-valued.
func StopMemoryTracking(ctx context.Context) MemoryStats {
	sess := sessionFrom(ctx)
	if sess == nil || !sess.active.Load() {
		return MemoryStats{}
	}
	stats := sess.snapshot()
	sess.active.Store(false)
	return stats
}

// IsMemoryMonitoringEnabled reports whether tracking is active for the task.
func IsMemoryMonitoringEnabled(ctx context.Context) bool {
	sess := sessionFrom(ctx)
	return sess != nil && sess.active.Load()
}

func (s *memorySession) snapshot() MemoryStats {
	cur := heapInUse()

	// Ratchet the peak; concurrent samples within one task are unusual but
	// must not regress it.
	for {
		prev := s.peak.Load()
		if cur <= prev || s.peak.CompareAndSwap(prev, cur) {
			break
		}
	}

	return MemoryStats{
		AllocatedMB: bytesToMB(int64(cur) - int64(s.baseline)),
		PeakMB:      bytesToMB(int64(s.peak.Load())),
		CurrentMB:   bytesToMB(int64(cur)),
	}
}

func sessionFrom(ctx context.Context) *memorySession {
	if ctx == nil {
		return nil
	}
	sess, _ := ctx.Value(memorySessionKey).(*memorySession)
	return sess
}

func heapInUse() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}

// bytesToMB converts to fractional megabytes rounded to 3 decimal places.
func bytesToMB(b int64) float64 {
	return math.Round(float64(b)/(1024*1024)*1000) / 1000
}
