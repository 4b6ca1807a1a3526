// Package capability provides invoker implementations for the
// autopilot engine.
package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	domain "github.com/storyforge/autopilot-go/domain/capability"
	"github.com/storyforge/autopilot-go/domain/plan"
	"github.com/storyforge/autopilot-go/domain/world"
)

// Outcome is a canned response for one invocation.
type Outcome struct {
	Output json.RawMessage
	Facts  []world.Effect
	Err    error
}

// ScriptedInvoker replays canned outcomes keyed by action ID and
// target. It records every call, in order, for inspection. Useful for
// tests and for dry-running a registry against a goal without touching
// real generation backends.
type ScriptedInvoker struct {
	mu       sync.Mutex
	outcomes map[string]Outcome
	fallback *Outcome
	latency  time.Duration
	calls    []plan.Invocation
}

// NewScriptedInvoker creates an empty scripted invoker. Invocations
// without a scripted outcome fail unless a default is set.
func NewScriptedInvoker() *ScriptedInvoker {
	return &ScriptedInvoker{
		outcomes: make(map[string]Outcome),
	}
}

// Script registers the outcome for an action invoked without a target.
func (s *ScriptedInvoker) Script(actionID string, outcome Outcome) *ScriptedInvoker {
	return s.ScriptTarget(actionID, "", outcome)
}

// ScriptTarget registers the outcome for an action invoked with a
// specific target.
func (s *ScriptedInvoker) ScriptTarget(actionID, target string, outcome Outcome) *ScriptedInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[scriptKey(actionID, target)] = outcome
	return s
}

// Default sets the outcome used when no scripted entry matches.
func (s *ScriptedInvoker) Default(outcome Outcome) *ScriptedInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = &outcome
	return s
}

// WithLatency makes every invocation sleep before responding,
// honoring context cancellation.
func (s *ScriptedInvoker) WithLatency(d time.Duration) *ScriptedInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
	return s
}

// Invoke implements capability.Invoker.
func (s *ScriptedInvoker) Invoke(ctx context.Context, inv plan.Invocation) (domain.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, inv)
	outcome, ok := s.outcomes[scriptKey(inv.ActionID, inv.Target)]
	if !ok {
		// Fall back to the target-free script, then the default.
		outcome, ok = s.outcomes[scriptKey(inv.ActionID, "")]
	}
	if !ok && s.fallback != nil {
		outcome, ok = *s.fallback, true
	}
	latency := s.latency
	s.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return domain.Result{}, ctx.Err()
		}
	}

	if !ok {
		return domain.Result{}, fmt.Errorf("invoke %s: %w", inv, domain.ErrUnknownCapability)
	}
	if outcome.Err != nil {
		return domain.Result{}, outcome.Err
	}

	return domain.Result{
		Output:   outcome.Output,
		Facts:    outcome.Facts,
		Duration: latency,
	}, nil
}

// Calls returns every invocation received, in order.
func (s *ScriptedInvoker) Calls() []plan.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := make([]plan.Invocation, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// CallCount returns the number of invocations received.
func (s *ScriptedInvoker) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func scriptKey(actionID, target string) string {
	if target == "" {
		return actionID
	}
	return actionID + "#" + target
}

var _ domain.Invoker = (*ScriptedInvoker)(nil)
