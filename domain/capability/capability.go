// Package capability defines the contract between the planning core and
// the external collaborator that performs the actual work (content
// generation, chapter drafting, and so on). The core treats a capability
// as an opaque asynchronous unit of work.
package capability

import (
	"context"
	"encoding/json"
	"time"

	"github.com/storyforge/autopilot-go/domain/plan"
	"github.com/storyforge/autopilot-go/domain/world"
)

// Result is the outcome of one successful capability invocation.
type Result struct {
	// Output is the capability's raw output, opaque to the core.
	Output json.RawMessage `json:"output,omitempty"`

	// Facts are effect-relevant values only the generated content knows
	// (e.g. the chapter count produced by outlining). The dispatcher
	// applies them together with the action's declared effects.
	Facts []world.Effect `json:"facts,omitempty"`

	// Duration is the invocation's wall-clock time, set by the executor.
	Duration time.Duration `json:"duration,omitempty"`
}

// Invoker performs capability invocations on behalf of the dispatcher.
// Implementations are supplied by the embedding service; a scripted
// implementation for tests and demos lives in infrastructure/capability.
type Invoker interface {
	// Invoke performs the work for one invocation. Failures are returned
	// as errors; the dispatcher converts them to result values and never
	// lets them propagate further.
	Invoke(ctx context.Context, inv plan.Invocation) (Result, error)
}

// InvokerFunc adapts a plain function to the Invoker interface.
type InvokerFunc func(ctx context.Context, inv plan.Invocation) (Result, error)

// Invoke calls the wrapped function.
func (f InvokerFunc) Invoke(ctx context.Context, inv plan.Invocation) (Result, error) {
	return f(ctx, inv)
}
