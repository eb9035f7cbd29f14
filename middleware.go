package oglog

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestLoggingOptions configures the bundled net/http middleware. The
// middleware is a collaborator of the core: it extracts request metadata,
// sets the task context, and emits the start/end records; everything else
// goes through the same public API any caller would use.
type RequestLoggingOptions struct {
	// ContextFields are field names looked up in the query string and JSON
	// payload; matches are added to the request scope for tracing.
	ContextFields []string

	// IncludeQueryParams logs the query parameters on the start record.
	IncludeQueryParams bool

	// IncludePayload logs up to PayloadMaxChars of the JSON body on the
	// start record (POST/PUT/PATCH only). The body is restored for the
	// handler.
	IncludePayload  bool
	PayloadMaxChars int

	// EnableMemoryMonitor tracks per-request allocations; every record in
	// the request then carries memory.allocated_mb/peak_mb/current_mb.
	// Sampling the heap has a measurable fixed cost, so it is opt-in.
	EnableMemoryMonitor bool
}

// RequestLogging returns middleware that scopes a request context (request
// id, client ip, extracted fields) around each request and logs its start
// and outcome. The response carries the request id in X-Request-Id.
func RequestLogging(svc *Service, opts RequestLoggingOptions) func(http.Handler) http.Handler {
	if opts.PayloadMaxChars <= 0 {
		opts.PayloadMaxChars = 100
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := newRequestID()
			clientIP := clientIPFrom(r)

			ctx := r.Context()
			if opts.EnableMemoryMonitor {
				ctx = StartMemoryTracking(ctx)
			}

			query := map[string]string{}
			for k, vals := range r.URL.Query() {
				if len(vals) > 0 {
					query[k] = vals[0]
				}
			}

			payload, raw := readJSONPayload(r, opts)

			extra := extractContextFields(opts.ContextFields, query, payload)
			ctx = SetRequestContext(ctx, requestID, clientIP, extra...)
			r = r.WithContext(ctx)

			start := svc.InfoWith().Ctx(ctx).
				Str("event_type", "request_start").
				Str("http.method", r.Method).
				Str("http.path", r.URL.Path)
			if opts.IncludeQueryParams && len(query) > 0 {
				start = start.Interface("http.query_params", query)
			}
			if opts.IncludePayload && len(raw) > 0 {
				start = start.Str("http.payload", truncate(string(raw), opts.PayloadMaxChars))
			}
			start.Msgf("%s %s", r.Method, r.URL.Path)

			w.Header().Set("X-Request-Id", requestID)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			began := time.Now()
			next.ServeHTTP(rec, r)
			durationMS := math.Round(float64(time.Since(began))/float64(time.Millisecond)*100) / 100

			// Tracking is stopped before the end event is built, so Ctx does
			// not inject the memory fields a second time.
			var memStats MemoryStats
			if opts.EnableMemoryMonitor {
				memStats = StopMemoryTracking(ctx)
			}

			end := eventForStatus(svc, rec.status).Ctx(ctx).
				Str("event_type", "request_end").
				Str("http.method", r.Method).
				Str("http.path", r.URL.Path).
				Int("http.status_code", rec.status).
				Float64("duration_ms", durationMS)
			if opts.EnableMemoryMonitor {
				end = end.
					Float64(fieldMemAllocated, memStats.AllocatedMB).
					Float64(fieldMemPeak, memStats.PeakMB).
					Float64(fieldMemCurrent, memStats.CurrentMB)
			}
			end.Msgf("%d in %.0fms", rec.status, durationMS)
		})
	}
}

// newRequestID is a short (8 hex chars) per-request identifier.
func newRequestID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}

// clientIPFrom honors X-Forwarded-For from proxies, falling back to the
// connection's remote address.
func clientIPFrom(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != emptyString {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// readJSONPayload buffers and parses a JSON body for mutating methods,
// restoring the body for the handler. Non-JSON bodies pass through.
func readJSONPayload(r *http.Request, opts RequestLoggingOptions) (map[string]interface{}, []byte) {
	if !opts.IncludePayload && len(opts.ContextFields) == 0 {
		return nil, nil
	}
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return nil, nil
	}
	if r.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		r.Body = io.NopCloser(bytes.NewReader(nil))
		return nil, nil
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) == 0 {
		return nil, nil
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, raw
	}
	return payload, raw
}

// extractContextFields pulls the configured trace fields out of the query
// string first, then the payload.
func extractContextFields(names []string, query map[string]string, payload map[string]interface{}) []Field {
	var fields []Field
	for _, name := range names {
		if v, ok := query[name]; ok {
			fields = append(fields, F(name, v))
			continue
		}
		if payload != nil {
			if v, ok := payload[name]; ok && v != nil {
				fields = append(fields, F(name, v))
			}
		}
	}
	return fields
}

func eventForStatus(svc *Service, status int) LogEvent {
	switch {
	case status >= 500:
		return svc.ErrorWith()
	case status >= 400:
		return svc.WarnWith()
	default:
		return svc.InfoWith()
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// statusRecorder captures the response status for the end-of-request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
