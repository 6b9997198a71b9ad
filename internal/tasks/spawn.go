package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Handle tracks one detached side effect.
type Handle struct {
	name  string
	jobID string
	done  chan struct{}
	err   error
}

// Done is closed once the side effect has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the side effect has returned and reports its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Name identifies the side effect in logs.
func (h *Handle) Name() string { return h.name }

// JobID is the job the side effect acts on.
func (h *Handle) JobID() string { return h.jobID }

// Spawner runs fire-and-forget side effects, each on its own goroutine with a timeout
// and a recover boundary so one failing task never takes the process down.
type Spawner struct {
	logger  *log.Logger
	timeout time.Duration
	wg      sync.WaitGroup
	active  atomic.Int64
}

// NewSpawner creates a spawner whose tasks get timeout to finish.
func NewSpawner(logger *log.Logger, timeout time.Duration) *Spawner {
	return &Spawner{logger: logger, timeout: timeout}
}

// Go starts fn detached and returns immediately.
//
// fn receives a fresh context bounded by the spawner's timeout; it is not tied to the
// caller's context, so stopping the loop does not cancel work already in flight.
func (s *Spawner) Go(name, jobID string, fn func(ctx context.Context) error) *Handle {
	h := &Handle{name: name, jobID: jobID, done: make(chan struct{})}

	s.wg.Add(1)
	s.active.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.active.Add(-1)
		defer close(h.done)

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("panic in %s: %v", name, r)
				s.logger.Error("side effect panicked", "task", name, "job", jobID, "panic", r)
			}
		}()

		if err := fn(ctx); err != nil {
			h.err = err
			s.logger.Error("side effect failed", "task", name, "job", jobID, "error", err)
		}
	}()

	return h
}

// Active returns the number of side effects still running.
func (s *Spawner) Active() int {
	return int(s.active.Load())
}

// Wait blocks until every spawned side effect has returned.
func (s *Spawner) Wait() {
	s.wg.Wait()
}
