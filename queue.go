package oglog

import (
	"sync"

	"go.uber.org/atomic"
)

// recordQueue is the bounded FIFO between emission and the writer daemon.
// Each entry is one fully serialized record line (newline included), so a
// dequeued batch can be appended to the file verbatim.
//
// push never blocks: when the queue is full the oldest record is dropped
// and counted (drop-newest when configured). Ordering is FIFO within a
// producer; cross-producer interleaving follows arrival at the mutex.
type recordQueue struct {
	mu       sync.Mutex
	buf      [][]byte
	head     int
	size     int
	capacity int

	dropNewest bool
	dropped    atomic.Uint64

	// notify wakes the daemon; capacity 1 so producers never block on it.
	notify chan struct{}
}

func newRecordQueue(capacity int, dropNewest bool) *recordQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &recordQueue{
		buf:        make([][]byte, capacity),
		capacity:   capacity,
		dropNewest: dropNewest,
		notify:     make(chan struct{}, 1),
	}
}

// push enqueues one line and reports whether it was retained.
func (q *recordQueue) push(line []byte) bool {
	q.mu.Lock()
	if q.size == q.capacity {
		q.dropped.Add(1)
		recordsDropped.Inc()
		if q.dropNewest {
			q.mu.Unlock()
			return false
		}
		// Drop the oldest to make room for the incoming record.
		q.buf[q.head] = nil
		q.head = (q.head + 1) % q.capacity
		q.size--
	}
	q.buf[(q.head+q.size)%q.capacity] = line
	q.size++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// drain removes and returns up to max lines in FIFO order. Used only by the
// writer daemon.
func (q *recordQueue) drain(max int) [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.size
	if max > 0 && n > max {
		n = max
	}
	if n == 0 {
		return nil
	}
	batch := make([][]byte, n)
	for i := 0; i < n; i++ {
		batch[i] = q.buf[q.head]
		q.buf[q.head] = nil
		q.head = (q.head + 1) % q.capacity
	}
	q.size -= n
	return batch
}

// requeue puts a failed batch back at the head so order is preserved for
// the next drain cycle. If the batch no longer fits, the newest queued
// records are discarded and counted as drops.
func (q *recordQueue) requeue(batch [][]byte) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	over := q.size + len(batch) - q.capacity
	for i := 0; i < over && q.size > 0; i++ {
		q.buf[(q.head+q.size-1)%q.capacity] = nil
		q.size--
		q.dropped.Add(1)
		recordsDropped.Inc()
	}
	if len(batch) > q.capacity {
		// Pathological: the batch alone exceeds capacity. Keep the oldest
		// capacity lines, count the rest as dropped.
		n := len(batch) - q.capacity
		q.dropped.Add(uint64(n))
		recordsDropped.Add(float64(n))
		batch = batch[:q.capacity]
	}
	for i := len(batch) - 1; i >= 0; i-- {
		q.head = (q.head - 1 + q.capacity) % q.capacity
		q.buf[q.head] = batch[i]
		q.size++
	}
}

func (q *recordQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *recordQueue) droppedCount() uint64 {
	return q.dropped.Load()
}
