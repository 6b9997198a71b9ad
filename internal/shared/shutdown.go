package shared

import "sync/atomic"

// Shutdown is the process-wide signal that all background work is being torn down.
//
// The zero value is ready to use and reports not stopping.
type Shutdown struct {
	stopping atomic.Bool
}

// Trigger marks the process as stopping. Safe to call more than once.
func (s *Shutdown) Trigger() {
	s.stopping.Store(true)
}

// Stopping reports whether Trigger has been called.
func (s *Shutdown) Stopping() bool {
	return s.stopping.Load()
}
