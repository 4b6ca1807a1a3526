package journal

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/storyforge/autopilot-go/domain/plan"
	"github.com/storyforge/autopilot-go/domain/session"
	"github.com/storyforge/autopilot-go/domain/world"
)

// Journal provides an append-only record of one autopilot session.
type Journal struct {
	sessionID string
	entries   []Entry
	mu        sync.RWMutex
}

// New creates a journal for the given session.
func New(sessionID string) *Journal {
	return &Journal{
		sessionID: sessionID,
		entries:   make([]Entry, 0),
	}
}

// Append adds an entry to the journal.
func (j *Journal) Append(entry Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry.SessionID = j.sessionID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.ID == "" {
		entry.ID = generateEntryID()
	}

	j.entries = append(j.entries, entry)
}

// Entries returns a copy of all entries.
func (j *Journal) Entries() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	entries := make([]Entry, len(j.entries))
	copy(entries, j.entries)
	return entries
}

// EntriesByType returns entries filtered by type.
func (j *Journal) EntriesByType(entryType EntryType) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var filtered []Entry
	for _, e := range j.entries {
		if e.Type == entryType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Count returns the number of entries.
func (j *Journal) Count() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// SessionID returns the associated session ID.
func (j *Journal) SessionID() string {
	return j.sessionID
}

// RecordSessionStarted records the start of a session.
func (j *Journal) RecordSessionStarted(projectID string, goal plan.Goal) {
	j.Append(NewEntry(EntrySessionStarted, j.sessionID, 0, SessionDetails{
		ProjectID: projectID,
		Goal:      goal.String(),
	}))
}

// RecordSessionFinished records the terminal outcome of a session.
func (j *Journal) RecordSessionFinished(status session.Status, reason string, cycles int) {
	j.Append(NewEntry(EntrySessionFinished, j.sessionID, cycles, SessionDetails{
		Status: status,
		Reason: reason,
		Cycles: cycles,
	}))
}

// RecordTransition records a session status transition.
func (j *Journal) RecordTransition(from, to session.Status, reason string) {
	j.Append(NewEntry(EntryStateTransition, j.sessionID, 0, TransitionDetails{
		From:   from,
		To:     to,
		Reason: reason,
	}))
}

// RecordStepSelected records the planner's output for a cycle.
func (j *Journal) RecordStepSelected(cycle int, step plan.Step) {
	invs := make([]string, len(step.Invocations))
	for i, inv := range step.Invocations {
		invs[i] = inv.String()
	}
	j.Append(NewEntry(EntryStepSelected, j.sessionID, cycle, StepDetails{
		Kind:        string(step.Kind),
		Invocations: invs,
	}))
}

// RecordInvocationSucceeded records a successful invocation.
func (j *Journal) RecordInvocationSucceeded(cycle int, taskID string, inv plan.Invocation, output json.RawMessage, duration time.Duration) {
	j.Append(NewEntry(EntryInvocationSucceeded, j.sessionID, cycle, InvocationDetails{
		TaskID:   taskID,
		ActionID: inv.ActionID,
		Target:   inv.Target,
		Output:   output,
		Duration: duration,
	}))
}

// RecordInvocationFailed records a failed invocation.
func (j *Journal) RecordInvocationFailed(cycle int, taskID string, inv plan.Invocation, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	j.Append(NewEntry(EntryInvocationFailed, j.sessionID, cycle, InvocationDetails{
		TaskID:   taskID,
		ActionID: inv.ActionID,
		Target:   inv.Target,
		Error:    msg,
	}))
}

// RecordEffectsApplied records the atomic world update of a cycle.
func (j *Journal) RecordEffectsApplied(cycle int, effects []world.Effect) {
	strs := make([]string, len(effects))
	for i, e := range effects {
		strs[i] = e.String()
	}
	j.Append(NewEntry(EntryEffectsApplied, j.sessionID, cycle, EffectsDetails{
		Effects: strs,
	}))
}

// RecordWorldSaved records persistence of the world at session exit.
func (j *Journal) RecordWorldSaved(projectID string, cycles int) {
	j.Append(NewEntry(EntryWorldSaved, j.sessionID, cycles, SessionDetails{
		ProjectID: projectID,
		Cycles:    cycles,
	}))
}
