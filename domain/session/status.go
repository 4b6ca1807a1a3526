// Package session provides the autopilot session aggregate: one
// plan/execute run over a project's world state, from Idle through
// Running to a terminal Done, Blocked, or Cancelled.
package session

// Status represents the lifecycle state of an autopilot session.
// Statuses are identified by stable strings.
type Status string

const (
	StatusIdle      Status = "idle"      // Created, loop not started
	StatusRunning   Status = "running"   // Plan/execute cycles in progress
	StatusDone      Status = "done"      // Goal satisfied
	StatusBlocked   Status = "blocked"   // Goal unmet, nothing eligible
	StatusCancelled Status = "cancelled" // Cooperatively cancelled
)

// Terminal returns true for done, blocked, and cancelled.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusBlocked || s == StatusCancelled
}

// IsValid returns true if the status is a recognized lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusDone, StatusBlocked, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// TerminalStatuses returns all terminal statuses.
func TerminalStatuses() []Status {
	return []Status{StatusDone, StatusBlocked, StatusCancelled}
}
