package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Scope tracks the goroutines spawned for capture sessions so shutdown can
// wait for in-flight work instead of killing it mid-pipeline.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	active atomic.Int64
	closed atomic.Bool
}

// NewScope creates a scope whose tasks inherit cancellation from parent.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Go runs fn in a tracked goroutine. Tasks started after Shutdown are
// dropped.
func (s *Scope) Go(name string, fn func(ctx context.Context)) {
	if s.closed.Load() {
		log.Warn().Str("task", name).Msg("Scope closed, task dropped")
		return
	}
	s.wg.Add(1)
	s.active.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.active.Add(-1)
		fn(s.ctx)
	}()
}

// Active returns the number of tasks currently running.
func (s *Scope) Active() int {
	return int(s.active.Load())
}

// Shutdown cancels pending tasks and waits for running ones to finish, up
// to the deadline on ctx. Sessions past their grace period ignore the
// cancellation and run to a terminal state.
func (s *Scope) Shutdown(ctx context.Context) error {
	s.closed.Store(true)
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		log.Warn().
			Int("active", s.Active()).
			Msg("Shutdown deadline reached with sessions still running")
		return ctx.Err()
	}
}
