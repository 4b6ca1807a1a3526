package statemachine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/storyforge/autopilot-go/domain/session"
)

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	ToStatus session.Status
	Reason   string
}

// Interpreter wraps the statekit interpreter with session-specific
// functionality. The transition actions record to the journal; the
// interpreter additionally syncs the session aggregate.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the session state machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// Start initializes the interpreter in the idle state and transitions
// to running.
func (i *Interpreter) Start() error {
	i.interp.Start()
	return i.transition(session.StatusRunning, "session started")
}

// Finish transitions the session into the given terminal status. The
// session aggregate is finished alongside the machine so waiters
// observing Session.Done unblock.
func (i *Interpreter) Finish(status session.Status, reason string) error {
	if !status.Terminal() {
		return fmt.Errorf("finish requires a terminal status, got %s", status)
	}
	if err := i.transition(status, reason); err != nil {
		return err
	}
	i.ctx.Session.Finish(status, reason)
	return nil
}

func (i *Interpreter) transition(to session.Status, reason string) error {
	event := statekit.Event{
		Type: EventForStatus(to),
		Payload: TransitionPayload{
			ToStatus: to,
			Reason:   reason,
		},
	}
	i.interp.Send(event)

	got := StatusFromMachine(i.interp.State().Value)
	if got != to {
		return fmt.Errorf("transition from %s to %s not allowed", i.ctx.Session.Status(), to)
	}
	if to == session.StatusRunning {
		i.ctx.Session.Start()
	}
	return nil
}

// Status returns the current machine status.
func (i *Interpreter) Status() session.Status {
	return StatusFromMachine(i.interp.State().Value)
}

// IsTerminal returns true if the machine is in a final state.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}
