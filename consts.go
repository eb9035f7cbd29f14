package oglog

import "time"

// ECS-flavored field names used on every record.
const (
	fieldRequestID  = "request.id"
	fieldClientIP   = "client.ip"
	fieldService    = "service.name"
	fieldServiceEnv = "service.environment"

	fieldMemAllocated = "memory.allocated_mb"
	fieldMemPeak      = "memory.peak_mb"
	fieldMemCurrent   = "memory.current_mb"

	fieldOriginFile     = "log.origin.file"
	fieldOriginLine     = "log.origin.line"
	fieldOriginFunction = "log.origin.function"

	fieldErrorType    = "error.type"
	fieldErrorMessage = "error.message"
	fieldErrorStack   = "error.stack_trace"
)

const (
	emptyString = ""

	// ecsTimeFormat is ISO-8601 UTC with millisecond precision.
	ecsTimeFormat     = "2006-01-02T15:04:05.000Z07:00"
	consoleTimeFormat = "2006-01-02 15:04:05"

	// rotatedTimeFormat names rotated files; microseconds avoid collisions
	// when several rotations land in the same second.
	rotatedTimeFormat = "20060102_150405.000000"
)

// Configuration defaults, overridable via Config or environment variables.
const (
	defaultServiceName    = "app"
	defaultEnvironment    = "development"
	defaultLevel          = "info"
	defaultLogDir         = "logs"
	defaultMaxMB          = 15
	defaultRetentionCount = 7
	defaultRetentionType  = retainDays
	defaultQueueCapacity  = 10000
	defaultLockTimeout    = 2 * time.Second
	defaultShutdownGrace  = 5 * time.Second
	defaultDrainInterval  = 100 * time.Millisecond
	defaultBatchSize      = 100
)

// Retention units.
const (
	retainFiles = "files"
	retainHours = "hours"
	retainDays  = "days"
	retainWeeks = "weeks"
)

// Output sinks.
const (
	outputStdout = "stdout"
	outputFile   = "file"
	outputBoth   = "both"
)

const (
	errMsgNilService    = "Logger service is nil."
	errMsgConfigInvalid = "Logging configuration is invalid."
)
