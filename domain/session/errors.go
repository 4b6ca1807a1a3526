package session

import "errors"

// Domain errors for session management.
var (
	// ErrSessionAlreadyActive indicates a session is already running for
	// the project. Surfaced synchronously to the caller; the running
	// session is untouched.
	ErrSessionAlreadyActive = errors.New("autopilot session already active for project")

	// ErrSessionNotRunning indicates the operation requires a running
	// session.
	ErrSessionNotRunning = errors.New("no running autopilot session for project")

	// ErrNoSession indicates no session exists for the project.
	ErrNoSession = errors.New("no autopilot session for project")
)
