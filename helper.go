package oglog

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// parseLevel parses a configured level string into a zerolog.Level.
// "warning" is accepted as an alias for "warn".
func parseLevel(level string) (zerolog.Level, error) {
	l, err := zerolog.ParseLevel(normalizeLevel(level))
	if err != nil {
		return zerolog.NoLevel, err
	}
	return l, nil
}

// levelLabel renders a level the way records name it: uppercase, with
// zerolog's "warn" widened back to WARNING.
func levelLabel(l zerolog.Level) string {
	if l == zerolog.WarnLevel {
		return "WARNING"
	}
	return strings.ToUpper(l.String())
}

// logEventBuilder creates a log event for the given level. Below the
// configured threshold (or on an uninitialized service) it returns the
// no-op event before any formatting work happens.
func logEventBuilder(s *Service, level zerolog.Level) LogEvent {
	if s == nil || !s.isInitialized.Load() {
		return newLogEvent(nil)
	}
	logger := s.logger.Load()
	if logger == nil {
		return newLogEvent(nil)
	}
	if logger.GetLevel() > level || level == zerolog.NoLevel {
		return newLogEvent(nil)
	}
	return newLogEvent(logger.WithLevel(level))
}

// applyTaskContext writes the ctx's request scope and, when tracking is
// enabled, a live memory sample onto the event. It runs at Ctx() time so
// call-site fields added afterwards win on key collision, per the merge
// order bound -> context -> memory -> call-site.
func applyTaskContext(e *zerolog.Event, ctx context.Context) {
	for _, f := range GetContext(ctx) {
		writeField(e, f)
	}
	if IsMemoryMonitoringEnabled(ctx) {
		stats := SampleMemory(ctx)
		e.Float64(fieldMemAllocated, stats.AllocatedMB)
		e.Float64(fieldMemPeak, stats.PeakMB)
		e.Float64(fieldMemCurrent, stats.CurrentMB)
	}
}

// originHook stamps every record with its emitting call site under the
// log.origin.* keys.
type originHook struct{}

func (originHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	frame, ok := callerOrigin()
	if !ok {
		return
	}
	e.Str(fieldOriginFile, frame.File)
	e.Int(fieldOriginLine, frame.Line)
	e.Str(fieldOriginFunction, frame.Function)
}

// emitterFuncs are this package's own emission wrappers; the caller walk
// skips them to land on the application frame regardless of which finisher
// (Msg, Msgf, Send, Emit) was used.
var emitterFuncs = map[string]struct{}{
	"github.com/oglabs/oglog.originHook.Run":   {},
	"github.com/oglabs/oglog.(*logEvent).Msg":  {},
	"github.com/oglabs/oglog.(*logEvent).Msgf": {},
	"github.com/oglabs/oglog.(*logEvent).Send": {},
	"github.com/oglabs/oglog.(*Service).Emit":  {},
}

func emitterFrame(fn string) bool {
	if strings.HasPrefix(fn, "github.com/rs/zerolog") {
		return true
	}
	_, ok := emitterFuncs[fn]
	return ok
}

// callerOrigin walks the stack past zerolog and the emission wrappers to
// the first application frame.
func callerOrigin() (runtime.Frame, bool) {
	var pcs [24]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != emptyString && !emitterFrame(frame.Function) {
			return frame, true
		}
		if !more {
			return runtime.Frame{}, false
		}
	}
}

// applyError writes the ECS error fields: the concrete type, the message,
// and the unwrap chain standing in for a stack (Go errors carry none).
func applyError(e *zerolog.Event, err error) {
	e.Str(fieldErrorType, fmt.Sprintf("%T", err))
	e.Str(fieldErrorMessage, err.Error())
	e.Str(fieldErrorStack, errorChain(err))
}

func errorChain(err error) string {
	var steps []string
	for err != nil {
		steps = append(steps, err.Error())
		err = errors.Unwrap(err)
	}
	return strings.Join(steps, ": caused by: ")
}

// writeField appends one Field with a typed zerolog call where the scalar
// type is known, falling back to Interface.
func writeField(e *zerolog.Event, f Field) {
	switch v := f.Value.(type) {
	case string:
		e.Str(f.Key, v)
	case int:
		e.Int(f.Key, v)
	case int64:
		e.Int64(f.Key, v)
	case uint64:
		e.Uint64(f.Key, v)
	case float64:
		e.Float64(f.Key, v)
	case bool:
		e.Bool(f.Key, v)
	case time.Time:
		e.Time(f.Key, v)
	case time.Duration:
		e.Dur(f.Key, v)
	case error:
		e.AnErr(f.Key, v)
	default:
		e.Interface(f.Key, v)
	}
}
