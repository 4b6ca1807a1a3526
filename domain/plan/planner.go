package plan

import (
	"strings"

	"github.com/storyforge/autopilot-go/domain/action"
	"github.com/storyforge/autopilot-go/domain/world"
)

// Select picks the next plan step for the given state and goal. It is a
// pure function of its inputs: no side effects, and deterministic for a
// fixed registration order.
//
// Selection:
//  1. actions whose preconditions hold are eligible;
//  2. eligible actions whose effects would not change any fact in the
//     goal's backward-relevance closure are discarded, which is what
//     prevents infinite loops on no-op actions;
//  3. a batchable action expands to one invocation per eligible target
//     and is returned as a batch;
//  4. ties between non-batchable actions break by registration order.
//
// A goal already satisfied yields Done; nothing eligible with the goal
// unmet yields Blocked. An action whose effects undo its own
// preconditions is still considered; cycle prevention is the progress
// filter's job, not a structural ban.
func Select(s *world.State, goal Goal, registry action.Registry) Step {
	if goal.Satisfied(s) {
		return Done()
	}

	relevant := relevantKeys(s, goal, registry)

	for _, def := range registry.List() {
		if !holdsAll(def.Preconditions(), s) {
			continue
		}

		if def.Batchable() {
			invs := expandTargets(def, s, relevant)
			if len(invs) > 0 {
				return NewBatch(invs)
			}
			continue
		}

		if !makesProgress(def.Effects(), s, relevant) {
			continue
		}
		return NewSingle(Invocation{ActionID: def.ID()})
	}

	return Blocked()
}

// expandTargets returns one invocation per target whose per-target
// preconditions hold and whose per-target effects make progress.
func expandTargets(def *action.Definition, s *world.State, relevant map[world.FactKey]struct{}) []Invocation {
	exp := def.Expansion()
	var invs []Invocation
	for _, target := range exp.Targets(s) {
		if !holdsAll(exp.TargetPreconditions(target), s) {
			continue
		}
		if !makesProgress(exp.TargetEffects(target), s, relevant) {
			continue
		}
		invs = append(invs, Invocation{ActionID: def.ID(), Target: target})
	}
	return invs
}

// relevantKeys computes the backward-relevance closure of the goal: the
// goal's own fact keys, plus the precondition keys of any action instance
// whose effects touch an already-relevant key, iterated to a fixpoint. An
// effect on a key outside this set cannot bring the goal closer.
//
// Batchable actions are handled per target instance, so a target whose
// effects serve no relevant fact does not drag its own preconditions into
// the closure. A batchable action whose target space is still empty is
// sampled with a placeholder target: its base precondition keys join the
// closure only when the sampled effect keys could match a relevant fact
// once targets exist. A batchable action that can never serve the goal
// must not make unrelated actions look like progress.
func relevantKeys(s *world.State, goal Goal, registry action.Registry) map[world.FactKey]struct{} {
	relevant := make(map[world.FactKey]struct{})
	add := func(key world.FactKey, changed *bool) {
		if _, ok := relevant[key]; !ok {
			relevant[key] = struct{}{}
			*changed = true
		}
	}
	for _, p := range goal.Predicates() {
		relevant[p.Key] = struct{}{}
	}

	defs := registry.List()
	for changed := true; changed; {
		changed = false
		for _, def := range defs {
			if !def.Batchable() {
				if !effectsTouch(def.Effects(), relevant) {
					continue
				}
				for _, p := range def.Preconditions() {
					add(p.Key, &changed)
				}
				continue
			}

			exp := def.Expansion()
			targets := exp.Targets(s)
			if len(targets) == 0 {
				if sampledEffectsServe(exp, relevant) {
					for _, p := range def.Preconditions() {
						add(p.Key, &changed)
					}
				}
				continue
			}
			for _, target := range targets {
				if !effectsTouch(exp.TargetEffects(target), relevant) {
					continue
				}
				for _, p := range def.Preconditions() {
					add(p.Key, &changed)
				}
				for _, p := range exp.TargetPreconditions(target) {
					add(p.Key, &changed)
				}
			}
		}
	}
	return relevant
}

// targetPlaceholder stands in for the target when sampling a batchable
// action's effect-key shape before any real targets exist. The NUL bytes
// keep it from colliding with fragments of real fact keys.
const targetPlaceholder = "\x00*\x00"

// sampledEffectsServe reports whether a batchable action with no
// enumerable targets could write a relevant key once targets appear. It
// expands the per-target effects with the placeholder target; an effect
// key embedding the placeholder matches relevant keys by its prefix and
// suffix, and a constant effect key matches exactly.
func sampledEffectsServe(exp *action.Expansion, relevant map[world.FactKey]struct{}) bool {
	for _, e := range exp.TargetEffects(targetPlaceholder) {
		key := string(e.Key)
		i := strings.Index(key, targetPlaceholder)
		if i < 0 {
			if _, ok := relevant[e.Key]; ok {
				return true
			}
			continue
		}
		prefix, suffix := key[:i], key[i+len(targetPlaceholder):]
		for k := range relevant {
			rk := string(k)
			if len(rk) > len(prefix)+len(suffix) &&
				strings.HasPrefix(rk, prefix) && strings.HasSuffix(rk, suffix) {
				return true
			}
		}
	}
	return false
}

// effectsTouch reports whether any effect writes a relevant key.
func effectsTouch(effects []world.Effect, relevant map[world.FactKey]struct{}) bool {
	for _, e := range effects {
		if _, ok := relevant[e.Key]; ok {
			return true
		}
	}
	return false
}

// makesProgress reports whether any effect changes a relevant fact.
func makesProgress(effects []world.Effect, s *world.State, relevant map[world.FactKey]struct{}) bool {
	for _, e := range effects {
		if _, ok := relevant[e.Key]; !ok {
			continue
		}
		if e.Changes(s) {
			return true
		}
	}
	return false
}

func holdsAll(preds []world.Predicate, s *world.State) bool {
	for _, p := range preds {
		if !p.Holds(s) {
			return false
		}
	}
	return true
}
