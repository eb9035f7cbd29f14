package oglog

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Shutdown wiring: every service with a file sink registers itself here so
// that SIGTERM (containers) and SIGINT (local runs) flush the record queue
// before the process dies. After flushing, the handler re-raises the
// signal with the default disposition so the process still terminates with
// the expected status.

var (
	lifecycleMu sync.Mutex
	liveSvcs    = map[*Service]struct{}{}
	signalOnce  sync.Once
)

func registerService(s *Service) {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()
	liveSvcs[s] = struct{}{}
}

func unregisterService(s *Service) {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()
	delete(liveSvcs, s)
}

// flushAll closes every registered service; each Close drains within its
// own bounded grace period.
func flushAll() {
	lifecycleMu.Lock()
	svcs := make([]*Service, 0, len(liveSvcs))
	for s := range liveSvcs {
		svcs = append(svcs, s)
	}
	lifecycleMu.Unlock()

	for _, s := range svcs {
		_ = s.Close()
	}
}

// installSignalHandler arms the SIGTERM/SIGINT flush hook once per process.
func installSignalHandler() {
	signalOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		go func() {
			sig := <-ch
			flushAll()
			signal.Stop(ch)
			// Hand the signal back to the default disposition.
			if p, err := os.FindProcess(os.Getpid()); err == nil {
				_ = p.Signal(sig)
			}
		}()
	})
}
