package world

import "errors"

// Domain errors for world state storage.
var (
	// ErrNotFound indicates no state is stored for the project.
	ErrNotFound = errors.New("world state not found")

	// ErrInvalidProjectID indicates an empty or malformed project ID.
	ErrInvalidProjectID = errors.New("invalid project id")

	// ErrInvalidValue indicates a fact value that is neither a boolean
	// nor an integer.
	ErrInvalidValue = errors.New("invalid fact value")
)
