package action

// Registry defines the interface for action registration and lookup.
// This is a repository interface - implementations are in infrastructure.
//
// Registration happens once at process or session start; the registry is
// read-only thereafter. List preserves registration order, which the
// planner uses for deterministic tie-breaking.
type Registry interface {
	// Register adds an action definition. Registering an ID twice fails
	// with ErrDuplicateAction.
	Register(def *Definition) error

	// Get retrieves an action by ID.
	Get(id string) (*Definition, bool)

	// List returns all registered actions in registration order.
	List() []*Definition

	// Names returns all registered action IDs in registration order.
	Names() []string

	// Has checks if an action is registered.
	Has(id string) bool
}
