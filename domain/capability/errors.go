package capability

import "errors"

// Domain errors for capability invocation.
var (
	// ErrInvocationTimeout indicates the capability did not complete
	// within the caller-supplied timeout. Treated exactly like any other
	// invocation failure for effect application and re-planning.
	ErrInvocationTimeout = errors.New("capability invocation timed out")

	// ErrUnknownCapability indicates the invoker has no implementation
	// for the requested action.
	ErrUnknownCapability = errors.New("unknown capability")
)
