// Package plan provides the planner: goals, plan steps, and the
// deterministic action-selection algorithm at the heart of the autopilot.
package plan

import (
	"strings"

	"github.com/storyforge/autopilot-go/domain/world"
)

// Goal is the target conjunction of facts an autopilot session works
// toward. Goals are immutable for a session's duration.
type Goal struct {
	name       string
	predicates []world.Predicate
}

// NewGoal creates a goal from a conjunction of predicates.
func NewGoal(name string, predicates ...world.Predicate) Goal {
	preds := make([]world.Predicate, len(predicates))
	copy(preds, predicates)
	return Goal{name: name, predicates: preds}
}

// Name returns the goal's human-readable name.
func (g Goal) Name() string {
	return g.name
}

// Predicates returns a copy of the goal's predicates.
func (g Goal) Predicates() []world.Predicate {
	preds := make([]world.Predicate, len(g.predicates))
	copy(preds, g.predicates)
	return preds
}

// Satisfied reports whether every goal predicate holds against the state.
func (g Goal) Satisfied(s *world.State) bool {
	for _, p := range g.predicates {
		if !p.Holds(s) {
			return false
		}
	}
	return true
}

// Unsatisfied returns the goal predicates that do not yet hold.
func (g Goal) Unsatisfied(s *world.State) []world.Predicate {
	var out []world.Predicate
	for _, p := range g.predicates {
		if !p.Holds(s) {
			out = append(out, p)
		}
	}
	return out
}

// String returns a human-readable representation.
func (g Goal) String() string {
	if len(g.predicates) == 0 {
		return g.name
	}
	parts := make([]string, len(g.predicates))
	for i, p := range g.predicates {
		parts[i] = p.String()
	}
	return g.name + ": " + strings.Join(parts, " AND ")
}
