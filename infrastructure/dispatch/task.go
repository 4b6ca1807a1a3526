// Package dispatch executes plan steps against capabilities and applies
// the resulting effects to the world state.
package dispatch

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/storyforge/autopilot-go/domain/plan"
	"github.com/storyforge/autopilot-go/domain/world"
)

// TaskStatus tracks the lifecycle of a dispatched invocation.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// Task is one capability invocation tracked through dispatch. Task IDs
// are assigned at dispatch time so planning stays deterministic.
type Task struct {
	ID         string
	Invocation plan.Invocation
	Status     TaskStatus
}

// NewTask wraps an invocation with a fresh task ID.
func NewTask(inv plan.Invocation) Task {
	return Task{
		ID:         uuid.New().String(),
		Invocation: inv,
		Status:     TaskPending,
	}
}

// Outcome is a successful task result.
type Outcome struct {
	Task     Task
	Output   json.RawMessage
	Effects  []world.Effect
	Duration time.Duration
}

// Failure is a failed task result.
type Failure struct {
	Task Task
	Err  error
}

// Result summarizes one dispatched step. Effects from failed tasks are
// never applied; Applied holds the combined effects of every successful
// task, applied to the world in a single update.
type Result struct {
	Succeeded []Outcome
	Failed    []Failure
	Applied   []world.Effect
}

// AllSucceeded reports whether every task in the step succeeded.
func (r Result) AllSucceeded() bool {
	return len(r.Failed) == 0
}

// Size returns the number of tasks dispatched.
func (r Result) Size() int {
	return len(r.Succeeded) + len(r.Failed)
}
