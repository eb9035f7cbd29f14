// Package oglog provides structured, context-aware logging for concurrent
// server processes, built on rs/zerolog.
//
// Key features
//   - Request-scoped context: fields set once per logical task (request id,
//     client ip, custom fields) are carried on context.Context and attached
//     to every log emitted with that context, without leaking between tasks
//   - Opt-in per-request memory sampling (allocated/peak/current, in MB)
//   - Non-blocking file sink: records are enqueued and written by a single
//     background daemon with size/time rotation and count/age retention
//   - Process-safe: every file write and rotation is guarded by an advisory
//     file lock, so multiple workers can share one log directory
//   - Exception-free contract: emission never returns an error or panics;
//     failures degrade to a one-line stderr notice
//   - Graceful shutdown: SIGTERM/SIGINT and Close() drain the queue within
//     a bounded grace period
//
// Typical usage
//
//	svc, err := oglog.Setup(oglog.Config{ServiceName: "my-api", Level: "debug"})
//	if err != nil { panic(err) }
//	defer svc.Close()
//
//	ctx := oglog.SetRequestContext(r.Context(), reqID, clientIP)
//	svc.InfoWith().Ctx(ctx).Str("user_id", id).Msg("processed")
//
//	req := svc.With().Str("component", "billing").Logger()
//	req.ErrorWith().Err(err).Msg("charge failed")
package oglog
