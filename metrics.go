package oglog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oglog",
		Subsystem: "writer",
		Name:      "records_written_total",
		Help:      "Log records appended to the file sink",
	})

	recordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oglog",
		Subsystem: "queue",
		Name:      "records_dropped_total",
		Help:      "Log records dropped because the queue was full",
	})

	rotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oglog",
		Subsystem: "writer",
		Name:      "rotations_total",
		Help:      "Active log file rotations performed",
	})

	lockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oglog",
		Subsystem: "writer",
		Name:      "lock_timeouts_total",
		Help:      "Write attempts skipped because the file lock could not be acquired in time",
	})

	retentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oglog",
		Subsystem: "writer",
		Name:      "retention_deleted_files_total",
		Help:      "Rotated files removed by the retention policy",
	})

	writeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oglog",
		Subsystem: "writer",
		Name:      "write_errors_total",
		Help:      "Batches that failed to reach disk",
	})
)
