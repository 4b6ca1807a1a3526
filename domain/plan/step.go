package plan

import "fmt"

// StepKind discriminates the planner's output.
type StepKind string

const (
	// StepSingle is one invocation of a non-batchable action.
	StepSingle StepKind = "single"
	// StepBatch is a set of independent invocations of one batchable
	// action, executed concurrently within a single planning cycle.
	StepBatch StepKind = "batch"
	// StepDone means the goal is already fully satisfied.
	StepDone StepKind = "done"
	// StepBlocked means the goal is unmet but no action is eligible.
	// Terminal, not an error.
	StepBlocked StepKind = "blocked"
)

// Invocation names one unit of work the planner selected: an action,
// optionally scoped to a target (e.g. a chapter number for batch members).
// Invocations are ephemeral; they exist only between selection and
// execution.
type Invocation struct {
	ActionID string `json:"action_id"`
	Target   string `json:"target,omitempty"`
}

// String returns a human-readable representation.
func (i Invocation) String() string {
	if i.Target == "" {
		return i.ActionID
	}
	return fmt.Sprintf("%s[%s]", i.ActionID, i.Target)
}

// Step is the planner's output for one cycle.
type Step struct {
	Kind        StepKind     `json:"kind"`
	Invocations []Invocation `json:"invocations,omitempty"`
}

// NewSingle creates a single-invocation step.
func NewSingle(inv Invocation) Step {
	return Step{Kind: StepSingle, Invocations: []Invocation{inv}}
}

// NewBatch creates a batch step from one invocation per target.
func NewBatch(invs []Invocation) Step {
	return Step{Kind: StepBatch, Invocations: invs}
}

// Done creates the terminal goal-satisfied step.
func Done() Step {
	return Step{Kind: StepDone}
}

// Blocked creates the terminal no-eligible-action step.
func Blocked() Step {
	return Step{Kind: StepBlocked}
}

// Terminal reports whether the step ends the session.
func (s Step) Terminal() bool {
	return s.Kind == StepDone || s.Kind == StepBlocked
}

// Size returns the number of invocations in the step.
func (s Step) Size() int {
	return len(s.Invocations)
}

// String returns a human-readable representation.
func (s Step) String() string {
	switch s.Kind {
	case StepDone, StepBlocked:
		return string(s.Kind)
	case StepSingle:
		return fmt.Sprintf("single %s", s.Invocations[0])
	case StepBatch:
		return fmt.Sprintf("batch of %d %s", len(s.Invocations), s.Invocations[0].ActionID)
	default:
		return string(s.Kind)
	}
}
