package oglog

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Field is one key/value pair attached to a log record. Slices of Field
// preserve insertion order, which the merged record inherits.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for constructing a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config controls a logging Service. The zero value plus ApplyDefaults is a
// working development setup (console + file, level info). Every option has
// an environment-variable fallback, applied only where the field is unset.
type Config struct {
	// ServiceName tags every record as service.name. Env: SERVICE_NAME.
	ServiceName string `validate:"required"`

	// Environment is reported as service.environment and drives the
	// JSON/console and output auto-detection. Env: ENVIRONMENT.
	Environment string `validate:"required"`

	// Level is the minimum level written: debug, info, warning or error
	// (case-insensitive). Env: LOG_LEVEL.
	Level string `validate:"oneof=debug info warn error"`

	// JSONOutput forces JSON (true) or console (false) rendering of the
	// stdout sink. Unset means auto: JSON in production/staging or when
	// JSON_LOGS=true. The file sink is always JSON.
	JSONOutput *bool

	// Output selects the sinks: stdout, file or both. Env: LOG_OUTPUT.
	// Defaults to stdout in production/staging and both otherwise.
	Output string `validate:"oneof=stdout file both"`

	// LogDir is the log directory, created if absent. Env: LOG_DIR.
	LogDir string `validate:"required"`

	// MaxMB is the rotation size threshold in megabytes. Env: LOG_MAX_MB.
	MaxMB int `validate:"gt=0"`

	// RotateEvery additionally rotates the active file once it reaches this
	// age, checked on the daemon's idle tick. Zero disables time rotation.
	RotateEvery time.Duration `validate:"gte=0"`

	// RetentionCount and RetentionType bound the rotated-files set:
	// "files" keeps the RetentionCount most recent files, the time units
	// delete files older than RetentionCount units.
	// Env: LOG_RETENTION_COUNT, LOG_RETENTION_TYPE.
	RetentionCount int    `validate:"gt=0"`
	RetentionType  string `validate:"oneof=files hours days weeks"`

	// QueueCapacity bounds the pending-record queue. When full, the oldest
	// record is dropped (or the newest, with QueueDropNewest) and counted.
	QueueCapacity   int `validate:"gt=0"`
	QueueDropNewest bool

	// LockTimeout bounds the wait for the cross-process file lock; a write
	// attempt that cannot acquire it in time is re-queued for the next
	// drain cycle.
	LockTimeout time.Duration `validate:"gt=0"`

	// ShutdownGrace bounds the synchronous queue drain on Close or signal.
	ShutdownGrace time.Duration `validate:"gt=0"`

	// ConsoleNoColor disables ANSI colors on the console sink.
	ConsoleNoColor bool

	// DisableSignalHandling skips the SIGTERM/SIGINT flush hook. Close()
	// must then be called explicitly to flush the file sink.
	DisableSignalHandling bool
}

// ApplyDefaults fills unset fields from environment variables and built-in
// defaults, and normalizes enum values. It is idempotent and is called by
// Service.Initialize.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == emptyString {
		c.ServiceName = envOr("SERVICE_NAME", defaultServiceName)
	}
	if c.Environment == emptyString {
		c.Environment = envOr("ENVIRONMENT", defaultEnvironment)
	}
	if c.Level == emptyString {
		c.Level = envOr("LOG_LEVEL", defaultLevel)
	}
	c.Level = normalizeLevel(c.Level)

	prodLike := c.Environment == "production" || c.Environment == "staging"

	if c.Output == emptyString {
		def := outputBoth
		if prodLike {
			def = outputStdout
		}
		c.Output = envOr("LOG_OUTPUT", def)
	}
	c.Output = strings.ToLower(c.Output)

	if c.JSONOutput == nil {
		v := prodLike || strings.EqualFold(os.Getenv("JSON_LOGS"), "true")
		c.JSONOutput = &v
	}
	if c.LogDir == emptyString {
		c.LogDir = envOr("LOG_DIR", defaultLogDir)
	}
	if c.MaxMB == 0 {
		c.MaxMB = envOrInt("LOG_MAX_MB", defaultMaxMB)
	}
	if c.RetentionCount == 0 {
		c.RetentionCount = envOrInt("LOG_RETENTION_COUNT", defaultRetentionCount)
	}
	if c.RetentionType == emptyString {
		c.RetentionType = envOr("LOG_RETENTION_TYPE", defaultRetentionType)
	}
	c.RetentionType = strings.ToLower(c.RetentionType)

	if c.QueueCapacity == 0 {
		c.QueueCapacity = defaultQueueCapacity
	}
	if c.LockTimeout == 0 {
		c.LockTimeout = defaultLockTimeout
	}
	if c.ShutdownGrace == 0 {
		c.ShutdownGrace = defaultShutdownGrace
	}
}

// normalizeLevel folds the accepted spellings onto zerolog's names.
func normalizeLevel(level string) string {
	l := strings.ToLower(strings.TrimSpace(level))
	if l == "warning" {
		return "warn"
	}
	return l
}

func (c *Config) maxBytes() int64 {
	return int64(c.MaxMB) * 1024 * 1024
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != emptyString {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	if v := os.Getenv(key); v != emptyString {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
