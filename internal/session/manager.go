package session

import (
	"context"
	"time"
)

// Manager builds sessions from shared components and launches each one as
// a tracked concurrent task. Launching never blocks: the grace period and
// pipeline run entirely inside the session goroutine.
type Manager struct {
	buffer    Snapshotter
	assembler Assembler
	pipeline  PipelineRunner
	delay     time.Duration
	scope     *Scope
}

// NewManager wires the shared collaborators every session uses.
func NewManager(buffer Snapshotter, assembler Assembler, pipe PipelineRunner, delay time.Duration, scope *Scope) *Manager {
	return &Manager{
		buffer:    buffer,
		assembler: assembler,
		pipeline:  pipe,
		delay:     delay,
		scope:     scope,
	}
}

// Launch starts a new capture session and returns its id immediately.
func (m *Manager) Launch() string {
	s := New(m.buffer, m.assembler, m.pipeline, m.delay)
	m.scope.Go("session/"+s.ID(), func(ctx context.Context) {
		// Terminal errors are logged by the session itself.
		_ = s.Run(ctx)
	})
	return s.ID()
}
