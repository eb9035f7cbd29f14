package oglog

import "context"

// Request context lives on context.Context so that it follows the logical
// task, not the goroutine: a scope set for one request is visible to every
// function the request's ctx flows through, survives hand-off to other
// goroutines that inherit the ctx, and can never be observed by an
// unrelated task.

type ctxKey int

const (
	requestScopeKey ctxKey = iota
	memorySessionKey
)

type requestScope struct {
	requestID string
	clientIP  string
	extra     []Field
}

// SetRequestContext establishes a request scope on ctx, replacing any scope
// inherited from an ancestor context. Extra fields with nil values are
// dropped to keep records clean. The returned context carries the scope.
func SetRequestContext(ctx context.Context, requestID, clientIP string, extra ...Field) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	scope := &requestScope{requestID: requestID, clientIP: clientIP}
	for _, f := range extra {
		if f.Value == nil || f.Key == emptyString {
			continue
		}
		scope.extra = append(scope.extra, f)
	}
	return context.WithValue(ctx, requestScopeKey, scope)
}

// ClearRequestContext removes the active scope. Clearing a context with no
// scope is a no-op, not an error; the returned context masks any scope an
// ancestor context may still carry.
func ClearRequestContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithValue(ctx, requestScopeKey, (*requestScope)(nil))
}

// GetContext returns the active scope's fields in stable order: request.id,
// client.ip, then extras in the order they were set. It returns nil when no
// scope is active and never fails.
func GetContext(ctx context.Context) []Field {
	scope := scopeFrom(ctx)
	if scope == nil {
		return nil
	}
	fields := make([]Field, 0, 2+len(scope.extra))
	fields = append(fields, Field{Key: fieldRequestID, Value: scope.requestID})
	if scope.clientIP != emptyString {
		fields = append(fields, Field{Key: fieldClientIP, Value: scope.clientIP})
	}
	fields = append(fields, scope.extra...)
	return fields
}

func scopeFrom(ctx context.Context) *requestScope {
	if ctx == nil {
		return nil
	}
	scope, _ := ctx.Value(requestScopeKey).(*requestScope)
	return scope
}
