package oglog

// Logger is the emission surface shared by the root Service and the child
// loggers created through With/Bind. Records below the configured level are
// rejected before any field formatting happens.
type Logger interface {
	DebugWith() LogEvent
	InfoWith() LogEvent
	WarnWith() LogEvent
	ErrorWith() LogEvent

	// With creates a child logger with permanently bound fields. The
	// receiver is not mutated.
	// Example: reqLogger := logger.With().Str("component", "billing").Logger()
	With() LogContext

	// Bind is the map-style shorthand for With.
	Bind(fields ...Field) Logger
}
