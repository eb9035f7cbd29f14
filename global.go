package oglog

import (
	"sync"

	"go.uber.org/atomic"
)

// Process-wide logger. Setup is the lazy, reconfigurable entry point the
// rest of an application reaches for; L hands back whatever is currently
// configured (nil-safe: emission on a nil Service is a no-op).

var (
	globalMu  sync.Mutex
	globalSvc atomic.Pointer[Service]
)

// Setup configures the process-wide logging service. Reconfiguring flushes
// and closes the previous instance first, so rotated-file state is never
// shared between two live daemons in one process.
func Setup(cfg Config) (*Service, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	svc := NewService(cfg)
	if err := svc.Initialize(); err != nil {
		return nil, err
	}

	if prev := globalSvc.Load(); prev != nil {
		_ = prev.Close()
	}
	globalSvc.Store(svc)
	return svc, nil
}

// L returns the process-wide service, or nil before Setup. All emission
// methods tolerate a nil receiver.
func L() *Service {
	return globalSvc.Load()
}
