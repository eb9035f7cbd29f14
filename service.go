package oglog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Service is the logging facade: it owns the configured sinks and exposes
// the emission API. Create one with NewService, call Initialize before
// logging and Close (or rely on the signal hook) to flush the file sink.
//
// Emission never returns an error and never panics: before Initialize,
// after Close, or below the level threshold, events are no-ops.
type Service struct {
	Config Config

	logger        atomic.Pointer[zerolog.Logger]
	isInitialized atomic.Bool

	queue  *recordQueue
	daemon *writerDaemon

	closeOnce sync.Once
}

func NewService(cfg Config) *Service {
	return &Service{Config: cfg}
}

// setupGlobals applies the ECS conventions to zerolog's package state:
// field names, UTC millisecond timestamps, uppercase level labels, and a
// stderr fallback for sink write failures. Shared by every Service in the
// process, applied once.
var setupGlobalsOnce sync.Once

func setupGlobals() {
	setupGlobalsOnce.Do(func() {
		zerolog.TimestampFieldName = "@timestamp"
		zerolog.LevelFieldName = "log.level"
		zerolog.MessageFieldName = "message"
		zerolog.TimeFieldFormat = ecsTimeFormat
		zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
		zerolog.LevelFieldMarshalFunc = levelLabel
		zerolog.ErrorHandler = func(err error) {
			fmt.Fprintf(os.Stderr, "oglog: sink write failed: %v\n", err)
		}
	})
}

// Initialize validates the configuration (fail fast: this is the only
// place the backbone is allowed to error), builds the sinks and starts the
// writer daemon when file output is enabled. Safe to call more than once.
func (s *Service) Initialize() error {
	if s == nil {
		return errors.New(errMsgNilService)
	}
	if s.isInitialized.Load() {
		return nil
	}

	s.Config.ApplyDefaults()
	if err := validateConfig(&s.Config); err != nil {
		return err
	}
	level, err := parseLevel(s.Config.Level)
	if err != nil {
		return fmt.Errorf("setting logging level: %w", err)
	}

	setupGlobals()

	writers, err := s.initializeWriters()
	if err != nil {
		return err
	}

	logger := zerolog.New(io.MultiWriter(writers...)).
		Hook(originHook{}).
		Level(level).
		With().
		Timestamp().
		Str(fieldService, s.Config.ServiceName).
		Str(fieldServiceEnv, s.Config.Environment).
		Logger()

	s.logger.Store(&logger)
	s.isInitialized.Store(true)

	if s.daemon != nil {
		registerService(s)
		if !s.Config.DisableSignalHandling {
			installSignalHandler()
		}
	}
	return nil
}

// initializeWriters assembles the sink set: a synchronous stdout writer
// (JSON or console per config) and/or the non-blocking queue feeding the
// writer daemon.
func (s *Service) initializeWriters() ([]io.Writer, error) {
	var writers []io.Writer

	if s.Config.Output == outputStdout || s.Config.Output == outputBoth {
		if s.Config.JSONOutput != nil && *s.Config.JSONOutput {
			writers = append(writers, os.Stdout)
		} else {
			writers = append(writers, newConsoleWriter(os.Stdout, s.Config.ConsoleNoColor))
		}
	}

	if s.Config.Output == outputFile || s.Config.Output == outputBoth {
		if err := os.MkdirAll(s.Config.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		s.queue = newRecordQueue(s.Config.QueueCapacity, s.Config.QueueDropNewest)
		s.daemon = newWriterDaemon(&s.Config, s.queue)
		s.daemon.start()
		writers = append(writers, &queueWriter{queue: s.queue})
	}

	if len(writers) == 0 {
		return nil, errors.New("no logging sinks enabled")
	}
	return writers, nil
}

// Close flushes the record queue within the configured grace period and
// stops the writer daemon. Safe to call multiple times; emission after
// Close is a no-op.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.isInitialized.Store(false)
		if s.daemon != nil {
			s.daemon.stop(s.Config.ShutdownGrace)
			unregisterService(s)
		}
	})
	return nil
}

// DebugWith returns a LogEvent for structured Debug-level logging.
// Example: svc.DebugWith().Ctx(ctx).Str("step", "parse").Msg("payload read")
func (s *Service) DebugWith() LogEvent {
	return logEventBuilder(s, zerolog.DebugLevel)
}

// InfoWith returns a LogEvent for structured Info-level logging.
func (s *Service) InfoWith() LogEvent {
	return logEventBuilder(s, zerolog.InfoLevel)
}

// WarnWith returns a LogEvent for structured Warning-level logging.
func (s *Service) WarnWith() LogEvent {
	return logEventBuilder(s, zerolog.WarnLevel)
}

// ErrorWith returns a LogEvent for structured Error-level logging.
// Example: svc.ErrorWith().Err(err).Str("operation", "charge").Msg("failed")
func (s *Service) ErrorWith() LogEvent {
	return logEventBuilder(s, zerolog.ErrorLevel)
}

// Emit writes one record at the given level, merging in order: fields
// bound to this logger, the ctx's request scope, the memory sample (when
// tracking), then the call-site fields. Later sources win on key
// collision. It never fails; below the threshold it returns immediately.
func (s *Service) Emit(ctx context.Context, level zerolog.Level, msg string, fields ...Field) {
	logEventBuilder(s, level).Ctx(ctx).Fields(fields...).Msg(msg)
}

// With returns a LogContext for creating a child logger with
// permanently-bound fields. The receiver is not mutated.
// Example: reqLogger := svc.With().Str("component", "ingest").Logger()
func (s *Service) With() LogContext {
	if s == nil || !s.isInitialized.Load() {
		return &noopLogContext{}
	}
	logger := s.logger.Load()
	if logger == nil {
		return &noopLogContext{}
	}
	return &logContext{
		context: logger.With(),
		service: s,
	}
}

// Bind is the Field-slice shorthand for With.
func (s *Service) Bind(fields ...Field) Logger {
	return s.With().Fields(fields...).Logger()
}

// DroppedRecords reports how many records the file-sink queue has dropped
// under overload since Initialize.
func (s *Service) DroppedRecords() uint64 {
	if s == nil || s.queue == nil {
		return 0
	}
	return s.queue.droppedCount()
}

// queueWriter adapts the record queue to io.Writer for zerolog's sink
// fan-out. zerolog hands over one complete serialized line per event; the
// line is copied because zerolog reuses its buffer.
type queueWriter struct {
	queue *recordQueue
}

func (w *queueWriter) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)
	w.queue.push(line)
	return len(p), nil
}
