package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/storyforge/autopilot-go/domain/session"
)

// recordTransition writes the state transition to the journal. In
// statekit, actions receive a pointer to the context. Since our
// context is *Context, actions receive **Context.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Session == nil {
		return
	}

	c := *ctx
	fromStatus := c.Session.Status()

	var toStatus session.Status
	var reason string
	if payload, ok := event.Payload.(TransitionPayload); ok {
		toStatus = payload.ToStatus
		reason = payload.Reason
	} else {
		toStatus = statusFromEventType(event.Type)
	}

	if c.Journal != nil {
		c.Journal.RecordTransition(fromStatus, toStatus, reason)
	}
}

// statusFromEventType derives the target status from an event type.
func statusFromEventType(eventType statekit.EventType) session.Status {
	switch eventType {
	case "START":
		return session.StatusRunning
	case "DONE":
		return session.StatusDone
	case "BLOCK":
		return session.StatusBlocked
	case "CANCEL":
		return session.StatusCancelled
	default:
		return session.Status(eventType)
	}
}
