package action

import "errors"

// Domain errors for the action catalog.
var (
	// ErrEmptyID indicates an action was built with an empty identifier.
	ErrEmptyID = errors.New("action id cannot be empty")

	// ErrNoCapability indicates an action was built without a capability
	// reference.
	ErrNoCapability = errors.New("action has no capability")

	// ErrNoTargetSelector indicates a batchable action was built without
	// a target selector.
	ErrNoTargetSelector = errors.New("batchable action has no target selector")

	// ErrDuplicateAction indicates an action with the same ID is already
	// registered.
	ErrDuplicateAction = errors.New("action already registered")

	// ErrActionNotFound indicates the requested action is not registered.
	ErrActionNotFound = errors.New("action not found")
)
