package oglog

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogContext provides a fluent interface for building a child logger with
// pre-populated fields. Fields added through LogContext are included in all
// messages the resulting logger emits.
type LogContext interface {
	Str(key, val string) LogContext
	Int(key string, val int) LogContext
	Int64(key string, val int64) LogContext
	Uint64(key string, val uint64) LogContext
	Float64(key string, val float64) LogContext
	Bool(key string, val bool) LogContext
	Time(key string, val time.Time) LogContext
	Err(err error) LogContext
	Interface(key string, val interface{}) LogContext
	Fields(fields ...Field) LogContext
	// Logger creates and returns the new child logger
	Logger() Logger
}

// LogEvent provides a fluent interface for structured logging with
// type-safe field methods. Ctx attaches a task context: the request scope
// and the live memory sample (when tracking is enabled) are written to the
// event at that point, so later call-site fields override them on key
// collision.
type LogEvent interface {
	Ctx(ctx context.Context) LogEvent
	Str(key, val string) LogEvent
	Strs(key string, vals []string) LogEvent
	Int(key string, val int) LogEvent
	Int64(key string, val int64) LogEvent
	Uint64(key string, val uint64) LogEvent
	Float64(key string, val float64) LogEvent
	Bool(key string, val bool) LogEvent
	Time(key string, val time.Time) LogEvent
	Dur(key string, val time.Duration) LogEvent
	Err(err error) LogEvent
	AnErr(key string, err error) LogEvent
	Interface(key string, val interface{}) LogEvent
	Fields(fields ...Field) LogEvent
	Msg(msg string)
	Msgf(format string, v ...interface{})
	Send()
}

// logEvent implements LogEvent by wrapping zerolog.Event. A nil event is
// the no-op form returned below the level threshold or before Initialize;
// every method tolerates it so emission can never fail.
type logEvent struct {
	event *zerolog.Event
}

func newLogEvent(e *zerolog.Event) LogEvent {
	return &logEvent{event: e}
}

func (e *logEvent) Ctx(ctx context.Context) LogEvent {
	if e.event != nil && ctx != nil {
		e.event.Ctx(ctx)
		applyTaskContext(e.event, ctx)
	}
	return e
}

func (e *logEvent) Str(key, val string) LogEvent {
	if e.event != nil {
		e.event.Str(key, val)
	}
	return e
}

func (e *logEvent) Strs(key string, vals []string) LogEvent {
	if e.event != nil {
		e.event.Strs(key, vals)
	}
	return e
}

func (e *logEvent) Int(key string, val int) LogEvent {
	if e.event != nil {
		e.event.Int(key, val)
	}
	return e
}

func (e *logEvent) Int64(key string, val int64) LogEvent {
	if e.event != nil {
		e.event.Int64(key, val)
	}
	return e
}

func (e *logEvent) Uint64(key string, val uint64) LogEvent {
	if e.event != nil {
		e.event.Uint64(key, val)
	}
	return e
}

func (e *logEvent) Float64(key string, val float64) LogEvent {
	if e.event != nil {
		e.event.Float64(key, val)
	}
	return e
}

func (e *logEvent) Bool(key string, val bool) LogEvent {
	if e.event != nil {
		e.event.Bool(key, val)
	}
	return e
}

func (e *logEvent) Time(key string, val time.Time) LogEvent {
	if e.event != nil {
		e.event.Time(key, val)
	}
	return e
}

func (e *logEvent) Dur(key string, val time.Duration) LogEvent {
	if e.event != nil {
		e.event.Dur(key, val)
	}
	return e
}

// Err enriches the record with the ECS error fields (error.type,
// error.message, error.stack_trace). A nil err is a no-op.
func (e *logEvent) Err(err error) LogEvent {
	if e.event != nil && err != nil {
		applyError(e.event, err)
	}
	return e
}

func (e *logEvent) AnErr(key string, err error) LogEvent {
	if e.event != nil {
		e.event.AnErr(key, err)
	}
	return e
}

func (e *logEvent) Interface(key string, val interface{}) LogEvent {
	if e.event != nil {
		e.event.Interface(key, val)
	}
	return e
}

func (e *logEvent) Fields(fields ...Field) LogEvent {
	if e.event != nil {
		for _, f := range fields {
			writeField(e.event, f)
		}
	}
	return e
}

func (e *logEvent) Msg(msg string) {
	if e.event != nil {
		e.event.Msg(msg)
	}
}

func (e *logEvent) Msgf(format string, v ...interface{}) {
	if e.event != nil {
		e.event.Msgf(format, v...)
	}
}

func (e *logEvent) Send() {
	if e.event != nil {
		e.event.Send()
	}
}

// logContext implements LogContext by wrapping zerolog.Context
type logContext struct {
	context zerolog.Context
	service *Service
}

func (c *logContext) Str(key, val string) LogContext {
	c.context = c.context.Str(key, val)
	return c
}

func (c *logContext) Int(key string, val int) LogContext {
	c.context = c.context.Int(key, val)
	return c
}

func (c *logContext) Int64(key string, val int64) LogContext {
	c.context = c.context.Int64(key, val)
	return c
}

func (c *logContext) Uint64(key string, val uint64) LogContext {
	c.context = c.context.Uint64(key, val)
	return c
}

func (c *logContext) Float64(key string, val float64) LogContext {
	c.context = c.context.Float64(key, val)
	return c
}

func (c *logContext) Bool(key string, val bool) LogContext {
	c.context = c.context.Bool(key, val)
	return c
}

func (c *logContext) Time(key string, val time.Time) LogContext {
	c.context = c.context.Time(key, val)
	return c
}

func (c *logContext) Err(err error) LogContext {
	c.context = c.context.Err(err)
	return c
}

func (c *logContext) Interface(key string, val interface{}) LogContext {
	c.context = c.context.Interface(key, val)
	return c
}

func (c *logContext) Fields(fields ...Field) LogContext {
	for _, f := range fields {
		c.context = c.context.Interface(f.Key, f.Value)
	}
	return c
}

func (c *logContext) Logger() Logger {
	logger := c.context.Logger()
	// The child delegates lifecycle state to the parent service so a Close
	// on the root is observed by every bound logger.
	return &contextLogger{
		logger: &logger,
		parent: c.service,
	}
}

// contextLogger is a child logger created via With/Bind. It owns its bound
// fields but shares the parent's sinks and initialization state.
type contextLogger struct {
	logger *zerolog.Logger
	parent *Service
}

func (cl *contextLogger) eventFor(level zerolog.Level) LogEvent {
	if cl.logger == nil || cl.parent == nil || !cl.parent.isInitialized.Load() {
		return newLogEvent(nil)
	}
	if cl.logger.GetLevel() > level {
		return newLogEvent(nil)
	}
	return newLogEvent(cl.logger.WithLevel(level))
}

func (cl *contextLogger) DebugWith() LogEvent { return cl.eventFor(zerolog.DebugLevel) }
func (cl *contextLogger) InfoWith() LogEvent  { return cl.eventFor(zerolog.InfoLevel) }
func (cl *contextLogger) WarnWith() LogEvent  { return cl.eventFor(zerolog.WarnLevel) }
func (cl *contextLogger) ErrorWith() LogEvent { return cl.eventFor(zerolog.ErrorLevel) }

func (cl *contextLogger) With() LogContext {
	if cl.logger == nil || cl.parent == nil || !cl.parent.isInitialized.Load() {
		return &noopLogContext{}
	}
	return &logContext{
		context: cl.logger.With(),
		service: cl.parent,
	}
}

func (cl *contextLogger) Bind(fields ...Field) Logger {
	return cl.With().Fields(fields...).Logger()
}

// noopLogContext is a no-op implementation of LogContext
type noopLogContext struct{}

func (n *noopLogContext) Str(key, val string) LogContext                    { return n }
func (n *noopLogContext) Int(key string, val int) LogContext                { return n }
func (n *noopLogContext) Int64(key string, val int64) LogContext            { return n }
func (n *noopLogContext) Uint64(key string, val uint64) LogContext          { return n }
func (n *noopLogContext) Float64(key string, val float64) LogContext        { return n }
func (n *noopLogContext) Bool(key string, val bool) LogContext              { return n }
func (n *noopLogContext) Time(key string, val time.Time) LogContext         { return n }
func (n *noopLogContext) Err(err error) LogContext                          { return n }
func (n *noopLogContext) Interface(key string, val interface{}) LogContext  { return n }
func (n *noopLogContext) Fields(fields ...Field) LogContext                 { return n }
func (n *noopLogContext) Logger() Logger                                    { return &noopLogger{} }

// noopLogger is a no-op implementation of Logger
type noopLogger struct{}

func (n *noopLogger) DebugWith() LogEvent         { return newLogEvent(nil) }
func (n *noopLogger) InfoWith() LogEvent          { return newLogEvent(nil) }
func (n *noopLogger) WarnWith() LogEvent          { return newLogEvent(nil) }
func (n *noopLogger) ErrorWith() LogEvent         { return newLogEvent(nil) }
func (n *noopLogger) With() LogContext            { return &noopLogContext{} }
func (n *noopLogger) Bind(fields ...Field) Logger { return n }
