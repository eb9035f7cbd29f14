package oglog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(from, to int) [][]byte {
	var out [][]byte
	for i := from; i < to; i++ {
		out = append(out, []byte(fmt.Sprintf("line-%03d\n", i)))
	}
	return out
}

func TestRecordQueue_FIFO(t *testing.T) {
	q := newRecordQueue(16, false)
	for _, l := range lines(0, 10) {
		require.True(t, q.push(l))
	}
	assert.Equal(t, 10, q.len())

	batch := q.drain(4)
	require.Len(t, batch, 4)
	assert.Equal(t, "line-000\n", string(batch[0]))
	assert.Equal(t, "line-003\n", string(batch[3]))

	rest := q.drain(0)
	require.Len(t, rest, 6)
	assert.Equal(t, "line-004\n", string(rest[0]))
	assert.Equal(t, "line-009\n", string(rest[5]))
	assert.Equal(t, 0, q.len())
	assert.Nil(t, q.drain(10))
}

func TestRecordQueue_DropOldest(t *testing.T) {
	q := newRecordQueue(8, false)
	for _, l := range lines(0, 20) {
		q.push(l)
	}

	assert.Equal(t, 8, q.len())
	assert.Equal(t, uint64(12), q.droppedCount())

	// The newest 8 records survive.
	batch := q.drain(0)
	require.Len(t, batch, 8)
	assert.Equal(t, "line-012\n", string(batch[0]))
	assert.Equal(t, "line-019\n", string(batch[7]))
}

func TestRecordQueue_DropNewest(t *testing.T) {
	q := newRecordQueue(8, true)
	for i, l := range lines(0, 20) {
		retained := q.push(l)
		assert.Equal(t, i < 8, retained, "push %d", i)
	}

	assert.Equal(t, uint64(12), q.droppedCount())
	batch := q.drain(0)
	require.Len(t, batch, 8)
	assert.Equal(t, "line-000\n", string(batch[0]))
	assert.Equal(t, "line-007\n", string(batch[7]))
}

func TestRecordQueue_Requeue(t *testing.T) {
	q := newRecordQueue(16, false)
	for _, l := range lines(4, 8) {
		q.push(l)
	}

	// A failed batch goes back to the head so order is preserved.
	q.requeue(lines(0, 4))
	batch := q.drain(0)
	require.Len(t, batch, 8)
	for i, l := range batch {
		assert.Equal(t, fmt.Sprintf("line-%03d\n", i), string(l))
	}
}

func TestRecordQueue_RequeueOverflow(t *testing.T) {
	q := newRecordQueue(6, false)
	for _, l := range lines(4, 10) {
		q.push(l)
	}

	q.requeue(lines(0, 4))
	assert.Equal(t, 6, q.len())
	assert.Equal(t, uint64(4), q.droppedCount())

	// The requeued batch is intact; the newest queued lines gave way.
	batch := q.drain(0)
	assert.Equal(t, "line-000\n", string(batch[0]))
	assert.Equal(t, "line-005\n", string(batch[5]))
}

// push must stay cheap and non-blocking even when the queue is saturated.
func TestRecordQueue_PushBounded(t *testing.T) {
	q := newRecordQueue(64, false)
	line := []byte("x\n")

	start := time.Now()
	for i := 0; i < 100_000; i++ {
		q.push(line)
	}
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 64, q.len())
	assert.Equal(t, uint64(100_000-64), q.droppedCount())
}
