package memory

import (
	"sync"

	"github.com/storyforge/autopilot-go/domain/action"
)

// ActionRegistry is an in-memory implementation of action.Registry.
// List returns definitions in registration order, which the planner
// relies on for deterministic tie-breaking.
type ActionRegistry struct {
	byID  map[string]*action.Definition
	order []*action.Definition
	mu    sync.RWMutex
}

// NewActionRegistry creates a new in-memory action registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{
		byID: make(map[string]*action.Definition),
	}
}

// Register adds an action definition.
func (r *ActionRegistry) Register(def *action.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[def.ID()]; exists {
		return action.ErrDuplicateAction
	}

	r.byID[def.ID()] = def
	r.order = append(r.order, def)
	return nil
}

// Get retrieves an action by ID.
func (r *ActionRegistry) Get(id string) (*action.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.byID[id]
	return def, ok
}

// List returns all registered actions in registration order.
func (r *ActionRegistry) List() []*action.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*action.Definition, len(r.order))
	copy(defs, r.order)
	return defs
}

// Names returns all registered action IDs in registration order.
func (r *ActionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	for i, def := range r.order {
		names[i] = def.ID()
	}
	return names
}

// Has checks if an action is registered.
func (r *ActionRegistry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byID[id]
	return ok
}

var _ action.Registry = (*ActionRegistry)(nil)
