// Package journal provides the append-only audit record of an autopilot
// session. The core keeps no invocation history of its own; the journal
// is what the history/versioning collaborator consumes.
package journal

import (
	"encoding/json"
	"time"

	"github.com/storyforge/autopilot-go/domain/session"
)

// EntryType classifies a journal entry.
type EntryType string

const (
	EntrySessionStarted      EntryType = "session_started"
	EntrySessionFinished     EntryType = "session_finished"
	EntryStateTransition     EntryType = "state_transition"
	EntryStepSelected        EntryType = "step_selected"
	EntryInvocationSucceeded EntryType = "invocation_succeeded"
	EntryInvocationFailed    EntryType = "invocation_failed"
	EntryEffectsApplied      EntryType = "effects_applied"
	EntryWorldSaved          EntryType = "world_saved"
)

// Entry is a single record in the journal.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      EntryType       `json:"type"`
	SessionID string          `json:"session_id"`
	Cycle     int             `json:"cycle,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// TransitionDetails contains details for state transition entries.
type TransitionDetails struct {
	From   session.Status `json:"from"`
	To     session.Status `json:"to"`
	Reason string         `json:"reason,omitempty"`
}

// StepDetails contains details for step selection entries.
type StepDetails struct {
	Kind        string   `json:"kind"`
	Invocations []string `json:"invocations,omitempty"`
}

// InvocationDetails contains details for invocation outcome entries.
type InvocationDetails struct {
	TaskID   string          `json:"task_id"`
	ActionID string          `json:"action_id"`
	Target   string          `json:"target,omitempty"`
	Output   json.RawMessage `json:"output,omitempty"`
	Error    string          `json:"error,omitempty"`
	Duration time.Duration   `json:"duration,omitempty"`
}

// EffectsDetails contains details for effect application entries.
type EffectsDetails struct {
	Effects []string `json:"effects"`
}

// SessionDetails contains details for session start/finish entries.
type SessionDetails struct {
	ProjectID string         `json:"project_id"`
	Goal      string         `json:"goal"`
	Status    session.Status `json:"status,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Cycles    int            `json:"cycles,omitempty"`
}

// NewEntry creates a journal entry with marshalled details.
func NewEntry(entryType EntryType, sessionID string, cycle int, details any) Entry {
	var detailsJSON json.RawMessage
	if details != nil {
		detailsJSON, _ = json.Marshal(details)
	}

	return Entry{
		ID:        generateEntryID(),
		Timestamp: time.Now(),
		Type:      entryType,
		SessionID: sessionID,
		Cycle:     cycle,
		Details:   detailsJSON,
	}
}

// generateEntryID creates a unique entry ID.
func generateEntryID() string {
	return time.Now().Format("20060102150405.000000000")
}

// DecodeDetails unmarshals the entry details into the given struct.
func (e Entry) DecodeDetails(v any) error {
	if e.Details == nil {
		return nil
	}
	return json.Unmarshal(e.Details, v)
}
