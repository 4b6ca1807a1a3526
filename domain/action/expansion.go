package action

import "github.com/storyforge/autopilot-go/domain/world"

// Expansion describes how a batchable action fans out over independent
// targets (e.g. one DraftChapter invocation per outlined-but-undrafted
// chapter). Targets are plain strings; for chapter-scoped actions they are
// chapter numbers.
type Expansion struct {
	// Targets enumerates all candidate targets given the current state.
	// The planner filters them further through Preconditions and the
	// progress check, so returning already-done targets is fine.
	Targets func(s *world.State) []string

	// Preconditions returns the target-specific predicates. The action's
	// base preconditions apply in addition.
	Preconditions func(target string) []world.Predicate

	// Effects returns the target-specific fact assignments applied when
	// the target's invocation succeeds.
	Effects func(target string) []world.Effect
}

// TargetPreconditions evaluates the per-target predicates, tolerating a
// nil function.
func (e *Expansion) TargetPreconditions(target string) []world.Predicate {
	if e.Preconditions == nil {
		return nil
	}
	return e.Preconditions(target)
}

// TargetEffects evaluates the per-target effects, tolerating a nil
// function.
func (e *Expansion) TargetEffects(target string) []world.Effect {
	if e.Effects == nil {
		return nil
	}
	return e.Effects(target)
}
