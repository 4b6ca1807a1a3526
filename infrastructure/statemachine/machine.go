// Package statemachine provides the statekit integration for the
// session lifecycle.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/storyforge/autopilot-go/domain/journal"
	"github.com/storyforge/autopilot-go/domain/session"
)

// Context carries session state through the state machine.
type Context struct {
	Session *session.Session
	Journal *journal.Journal
}

// NewContext creates a new machine context.
func NewContext(sess *session.Session, jrnl *journal.Journal) *Context {
	return &Context{
		Session: sess,
		Journal: jrnl,
	}
}

// State IDs as StateID type for statekit.
const (
	stateIdle      statekit.StateID = statekit.StateID(session.StatusIdle)
	stateRunning   statekit.StateID = statekit.StateID(session.StatusRunning)
	stateDone      statekit.StateID = statekit.StateID(session.StatusDone)
	stateBlocked   statekit.StateID = statekit.StateID(session.StatusBlocked)
	stateCancelled statekit.StateID = statekit.StateID(session.StatusCancelled)
)

// NewSessionMachine creates the canonical session lifecycle statechart.
// Idle sessions can only start; running sessions end in exactly one of
// the three terminal states.
func NewSessionMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("session").
		WithInitial(stateIdle).
		WithContext(&Context{}).
		WithAction("recordTransition", recordTransition).
		WithGuard("notTerminal", guardNotTerminal).
		State(stateIdle).
			On("START").Target(stateRunning).Guard("notTerminal").Do("recordTransition").
			Done().
		State(stateRunning).
			On("DONE").Target(stateDone).Do("recordTransition").
			On("BLOCK").Target(stateBlocked).Do("recordTransition").
			On("CANCEL").Target(stateCancelled).Do("recordTransition").
			Done().
		State(stateDone).
			Final().
			Done().
		State(stateBlocked).
			Final().
			Done().
		State(stateCancelled).
			Final().
			Done().
		Build()
}

// EventForStatus returns the event type that transitions to the given
// status.
func EventForStatus(to session.Status) statekit.EventType {
	switch to {
	case session.StatusRunning:
		return "START"
	case session.StatusDone:
		return "DONE"
	case session.StatusBlocked:
		return "BLOCK"
	case session.StatusCancelled:
		return "CANCEL"
	default:
		return statekit.EventType(to)
	}
}

// StatusFromMachine converts the machine state ID to a session status.
func StatusFromMachine(stateID statekit.StateID) session.Status {
	return session.Status(stateID)
}
