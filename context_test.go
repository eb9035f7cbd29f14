package oglog

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldMap(fields []Field) map[string]interface{} {
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

func TestSetRequestContext(t *testing.T) {
	t.Run("basic scope", func(t *testing.T) {
		ctx := SetRequestContext(context.Background(), "req-1", "10.0.0.1")
		fields := GetContext(ctx)
		require.Len(t, fields, 2)
		assert.Equal(t, fieldRequestID, fields[0].Key)
		assert.Equal(t, "req-1", fields[0].Value)
		assert.Equal(t, fieldClientIP, fields[1].Key)
		assert.Equal(t, "10.0.0.1", fields[1].Value)
	})

	t.Run("extras preserve order and skip nils", func(t *testing.T) {
		ctx := SetRequestContext(context.Background(), "req-2", "10.0.0.1",
			F("user_id", "u-9"), F("ignored", nil), F("folder_id", 42))
		m := fieldMap(GetContext(ctx))
		assert.Equal(t, "u-9", m["user_id"])
		assert.Equal(t, 42, m["folder_id"])
		assert.NotContains(t, m, "ignored")

		fields := GetContext(ctx)
		assert.Equal(t, "user_id", fields[2].Key)
		assert.Equal(t, "folder_id", fields[3].Key)
	})

	t.Run("replaces inherited scope", func(t *testing.T) {
		parent := SetRequestContext(context.Background(), "old", "1.1.1.1", F("stale", true))
		child := SetRequestContext(parent, "new", "2.2.2.2")
		m := fieldMap(GetContext(child))
		assert.Equal(t, "new", m[fieldRequestID])
		assert.NotContains(t, m, "stale")
	})

	t.Run("nil ctx tolerated", func(t *testing.T) {
		//nolint:staticcheck // misuse must be safe, not fatal
		ctx := SetRequestContext(nil, "req-3", "")
		assert.Equal(t, "req-3", fieldMap(GetContext(ctx))[fieldRequestID])
	})
}

func TestGetContext_Empty(t *testing.T) {
	assert.Empty(t, GetContext(context.Background()))
	assert.Empty(t, GetContext(nil))
}

func TestClearRequestContext(t *testing.T) {
	t.Run("masks inherited scope", func(t *testing.T) {
		ctx := SetRequestContext(context.Background(), "req-1", "10.0.0.1")
		cleared := ClearRequestContext(ctx)
		assert.Empty(t, GetContext(cleared))
		// The original ctx still carries its scope; clearing is scoped too.
		assert.NotEmpty(t, GetContext(ctx))
	})

	t.Run("idempotent", func(t *testing.T) {
		ctx := ClearRequestContext(context.Background())
		ctx = ClearRequestContext(ctx)
		assert.Empty(t, GetContext(ctx))
	})
}

// Two concurrently-running tasks must never observe each other's scope,
// even when their contexts derive from the same parent.
func TestContextIsolation(t *testing.T) {
	const tasks = 64
	parent := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, tasks)
	start := make(chan struct{})

	for i := 0; i < tasks; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			want := fmt.Sprintf("req-%d", n)
			ctx := SetRequestContext(parent, want, "127.0.0.1", F("task", n))
			for j := 0; j < 100; j++ {
				m := fieldMap(GetContext(ctx))
				if m[fieldRequestID] != want || m["task"] != n {
					errs <- fmt.Errorf("task %d observed foreign scope: %v", n, m)
					return
				}
			}
		}(i)
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
