package session

import (
	"context"
	"sync"
	"time"

	"github.com/storyforge/autopilot-go/domain/plan"
	"github.com/storyforge/autopilot-go/domain/world"
)

// Session represents a single autopilot run over one project. It is the
// aggregate root for the session domain: the loop goroutine writes it,
// observers read it through the accessor methods.
type Session struct {
	id        string
	projectID string
	goal      plan.Goal

	mu        sync.RWMutex
	status    Status
	reason    string
	cycles    int
	startTime time.Time
	endTime   time.Time
	world     *world.State
	cancelled bool
	done      chan struct{}
}

// New creates an idle session for the given project and goal.
func New(id, projectID string, goal plan.Goal) *Session {
	return &Session{
		id:        id,
		projectID: projectID,
		goal:      goal,
		status:    StatusIdle,
		done:      make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// ProjectID returns the project this session drives.
func (s *Session) ProjectID() string {
	return s.projectID
}

// Goal returns the session's goal, immutable for the session's duration.
func (s *Session) Goal() plan.Goal {
	return s.goal
}

// Start marks the session running.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusRunning
	s.startTime = time.Now()
}

// Finish moves the session to a terminal status and unblocks waiters.
// Finishing an already-terminal session is a no-op.
func (s *Session) Finish(status Status, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = status
	s.reason = reason
	s.endTime = time.Now()
	close(s.done)
}

// Status returns the current lifecycle status.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Reason returns the terminal reason (why blocked, what cancelled), or ""
// while running.
func (s *Session) Reason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// RecordCycle increments the completed-cycle counter.
func (s *Session) RecordCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
}

// Cycles returns the number of completed plan/execute cycles.
func (s *Session) Cycles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles
}

// RequestCancel flags the session for cooperative cancellation. The loop
// honors it at the next cycle boundary; an in-flight batch settles first.
func (s *Session) RequestCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
}

// CancelRequested reports whether cancellation has been requested.
func (s *Session) CancelRequested() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancelled
}

// SetWorld records the final world snapshot at session exit.
func (s *Session) SetWorld(w *world.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world = w
}

// World returns the final world snapshot, or nil before the session
// reaches a terminal status.
func (s *Session) World() *world.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

// Done returns a channel closed when the session reaches a terminal
// status.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session finishes or the context is cancelled.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Duration returns the session's elapsed time.
func (s *Session) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	if s.endTime.IsZero() {
		return time.Since(s.startTime)
	}
	return s.endTime.Sub(s.startTime)
}
