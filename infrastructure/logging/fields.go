package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that adds a typed field to a bolt event.
type Field func(*bolt.Event) *bolt.Event

// SessionID adds a session identifier field.
func SessionID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("session_id", id)
	}
}

// ProjectID adds a project identifier field.
func ProjectID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("project_id", id)
	}
}

// ActionID adds an action identifier field.
func ActionID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("action_id", id)
	}
}

// Target adds a batch target field.
func Target(target string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("target", target)
	}
}

// TaskID adds a task identifier field.
func TaskID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("task_id", id)
	}
}

// Cycle adds a planning cycle number field.
func Cycle(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("cycle", n)
	}
}

// BatchSize adds a batch size field.
func BatchSize(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("batch_size", n)
	}
}

// StepKind adds a plan step kind field.
func StepKind(kind string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("step_kind", kind)
	}
}

// Goal adds a goal name field.
func Goal(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("goal", name)
	}
}

// Status adds a session status field.
func Status(status string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("status", status)
	}
}

// Reason adds a terminal reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Err(err)
	}
}

// Component adds a component name field.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Count adds a generic count field.
func Count(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("count", n)
	}
}

// Str adds a generic string field.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
