// Package session runs one capture session per trigger: wait out the
// post-trigger grace period, snapshot the ring buffer, assemble the clip,
// and hand it to the media pipeline. Sessions are independent concurrent
// tasks with read-only access to the shared buffer; any number may overlap
// without coordinating, and overlapping sessions may capture overlapping
// buffer content.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mementolabs/capture-agent/internal/capture"
	"github.com/mementolabs/capture-agent/internal/pipeline"
)

// State is a capture session's position in its lifecycle.
type State int

const (
	StatePending State = iota
	StateDelaying
	StateSnapshotting
	StateAssembling
	StatePipelining
	StateCompleted
	StateFailed
)

// String returns the log name of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDelaying:
		return "delaying"
	case StateSnapshotting:
		return "snapshotting"
	case StateAssembling:
		return "assembling"
	case StatePipelining:
		return "pipelining"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Snapshotter is the read side of the ring buffer.
type Snapshotter interface {
	Snapshot() []capture.Frame
}

// Assembler turns an ordered frame sequence into one animated artifact.
type Assembler interface {
	Assemble(frames [][]byte) ([]byte, error)
}

// PipelineRunner executes the post-capture stages for one artifact.
type PipelineRunner interface {
	Run(ctx context.Context, sessionID string, artifact pipeline.Artifact) (*pipeline.Result, error)
}

// Session is the per-trigger state machine. A session is run exactly once
// and destroyed on reaching a terminal state; there is no durable session
// record.
type Session struct {
	id        string
	buffer    Snapshotter
	assembler Assembler
	pipeline  PipelineRunner
	delay     time.Duration
	createdAt time.Time

	state  State
	logger zerolog.Logger
}

// New creates a Pending session with a fresh id.
func New(buffer Snapshotter, assembler Assembler, pipe PipelineRunner, delay time.Duration) *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		buffer:    buffer,
		assembler: assembler,
		pipeline:  pipe,
		delay:     delay,
		createdAt: time.Now(),
		state:     StatePending,
		logger:    log.With().Str("session_id", id).Logger(),
	}
}

// ID returns the session id used across logs and acknowledgments.
func (s *Session) ID() string {
	return s.id
}

// State returns the session's current state. Only meaningful to the
// goroutine running the session, or after Run has returned.
func (s *Session) State() State {
	return s.state
}

// Run drives the session to a terminal state. The context is honored only
// through the Delaying stage: once the grace period has elapsed the
// session cannot be cancelled, so shutdown never abandons a half-run
// pipeline with untracked side effects.
func (s *Session) Run(ctx context.Context) error {
	s.transition(StateDelaying)

	select {
	case <-ctx.Done():
		s.failWith(ctx.Err())
		return ctx.Err()
	case <-time.After(s.delay):
	}

	// Past Delaying: detach from cancellation.
	ctx = context.WithoutCancel(ctx)

	s.transition(StateSnapshotting)
	frames := s.buffer.Snapshot()
	s.logger.Debug().Int("frames", len(frames)).Msg("Buffer snapshot taken")

	s.transition(StateAssembling)
	blobs := make([][]byte, len(frames))
	for i, f := range frames {
		blobs[i] = f.Data
	}
	gifBytes, err := s.assembler.Assemble(blobs)
	if err != nil {
		s.failWith(err)
		return fmt.Errorf("assemble: %w", err)
	}

	s.transition(StatePipelining)
	result, err := s.pipeline.Run(ctx, s.id, pipeline.NewArtifact(gifBytes))
	if err != nil {
		// Earlier stages may have uploaded or persisted already; those
		// side effects stand. The log trail is the reconciliation path.
		s.failWith(err)
		return fmt.Errorf("pipeline: %w", err)
	}

	s.transition(StateCompleted)
	s.logger.Info().
		Str("public_url", result.PublicURL).
		Dur("total", time.Since(s.createdAt)).
		Msg("Capture session completed")
	return nil
}

// transition moves the session to the next state with a debug trace.
func (s *Session) transition(next State) {
	s.logger.Debug().
		Str("from", s.state.String()).
		Str("to", next.String()).
		Msg("Session state transition")
	s.state = next
}

// failWith marks the session Failed and logs the terminal error.
func (s *Session) failWith(err error) {
	from := s.state
	s.state = StateFailed
	s.logger.Error().
		Err(err).
		Str("stage", from.String()).
		Msg("Capture session failed")
}
