package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/storyforge/autopilot-go/domain/action"
	"github.com/storyforge/autopilot-go/domain/capability"
	"github.com/storyforge/autopilot-go/domain/journal"
	"github.com/storyforge/autopilot-go/domain/plan"
	"github.com/storyforge/autopilot-go/domain/world"
	"github.com/storyforge/autopilot-go/infrastructure/resilience"
	"github.com/storyforge/autopilot-go/infrastructure/storage/memory"
)

func draftChapterAction(t *testing.T) *action.Definition {
	t.Helper()
	def, err := action.NewBuilder("draft_chapter").
		WithCapability("writer.draft_chapter").
		BatchOver(action.Expansion{
			Targets: func(s *world.State) []string {
				var targets []string
				for i := 1; i <= s.GetInt("chapter.count"); i++ {
					targets = append(targets, strconv.Itoa(i))
				}
				return targets
			},
			Preconditions: func(target string) []world.Predicate {
				return []world.Predicate{world.IsFalse(world.FactKey("chapter." + target + ".drafted"))}
			},
			Effects: func(target string) []world.Effect {
				return []world.Effect{world.SetBool(world.FactKey("chapter."+target+".drafted"), true)}
			},
		}).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return def
}

func createOutlineAction(t *testing.T) *action.Definition {
	t.Helper()
	def, err := action.NewBuilder("create_outline").
		WithCapability("writer.create_outline").
		WithEffects(world.SetBool("outline.exists", true)).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return def
}

func newTestDispatcher(t *testing.T, state *world.State, invoker capability.Invoker) (*Dispatcher, *journal.Journal) {
	t.Helper()

	registry := memory.NewActionRegistry()
	for _, def := range []*action.Definition{createOutlineAction(t), draftChapterAction(t)} {
		if err := registry.Register(def); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	jrnl := journal.New("sess-1")
	dispatcher, err := NewDispatcher(Config{
		World:    state,
		Registry: registry,
		Invoker:  invoker,
		Executor: resilience.NewExecutor(resilience.WithTimeout(2 * time.Second)),
		Journal:  jrnl,
	})
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return dispatcher, jrnl
}

func okInvoker() capability.Invoker {
	return capability.InvokerFunc(func(ctx context.Context, inv plan.Invocation) (capability.Result, error) {
		return capability.Result{Output: json.RawMessage(`{"ok":true}`)}, nil
	})
}

func TestDispatchSingle(t *testing.T) {
	state := world.NewState()
	dispatcher, jrnl := newTestDispatcher(t, state, okInvoker())

	step := plan.NewSingle(plan.Invocation{ActionID: "create_outline"})
	result, err := dispatcher.Execute(context.Background(), 1, step)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !result.AllSucceeded() {
		t.Fatalf("AllSucceeded() = false, failures: %v", result.Failed)
	}
	if len(result.Succeeded) != 1 {
		t.Fatalf("Succeeded = %d, want 1", len(result.Succeeded))
	}
	if !state.GetBool("outline.exists") {
		t.Error("outline.exists = false after dispatch, want true")
	}
	if got := result.Succeeded[0].Task.Status; got != TaskSucceeded {
		t.Errorf("task status = %s, want succeeded", got)
	}
	if n := len(jrnl.EntriesByType(journal.EntryInvocationSucceeded)); n != 1 {
		t.Errorf("succeeded entries = %d, want 1", n)
	}
	if n := len(jrnl.EntriesByType(journal.EntryEffectsApplied)); n != 1 {
		t.Errorf("effects entries = %d, want 1", n)
	}
}

func TestDispatchBatchAllSucceed(t *testing.T) {
	state := world.NewState()
	state.Set("chapter.count", world.Int(3))
	dispatcher, _ := newTestDispatcher(t, state, okInvoker())

	step := plan.NewBatch([]plan.Invocation{
		{ActionID: "draft_chapter", Target: "1"},
		{ActionID: "draft_chapter", Target: "2"},
		{ActionID: "draft_chapter", Target: "3"},
	})

	result, err := dispatcher.Execute(context.Background(), 1, step)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Succeeded) != 3 {
		t.Fatalf("Succeeded = %d, want 3", len(result.Succeeded))
	}

	for i := 1; i <= 3; i++ {
		key := world.FactKey(fmt.Sprintf("chapter.%d.drafted", i))
		if !state.GetBool(key) {
			t.Errorf("%s = false, want true", key)
		}
	}
}

func TestDispatchBatchPartialFailure(t *testing.T) {
	state := world.NewState()
	state.Set("chapter.count", world.Int(3))

	invoker := capability.InvokerFunc(func(ctx context.Context, inv plan.Invocation) (capability.Result, error) {
		if inv.Target == "2" {
			return capability.Result{}, errors.New("model refused")
		}
		return capability.Result{}, nil
	})
	dispatcher, jrnl := newTestDispatcher(t, state, invoker)

	step := plan.NewBatch([]plan.Invocation{
		{ActionID: "draft_chapter", Target: "1"},
		{ActionID: "draft_chapter", Target: "2"},
		{ActionID: "draft_chapter", Target: "3"},
	})

	result, err := dispatcher.Execute(context.Background(), 1, step)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(result.Succeeded) != 2 {
		t.Errorf("Succeeded = %d, want 2", len(result.Succeeded))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("Failed = %d, want 1", len(result.Failed))
	}
	if got := result.Failed[0].Task.Invocation.Target; got != "2" {
		t.Errorf("failed target = %q, want %q", got, "2")
	}

	// Effects of the successes apply; the failure's effect does not.
	if !state.GetBool("chapter.1.drafted") {
		t.Error("chapter.1.drafted = false, want true")
	}
	if state.GetBool("chapter.2.drafted") {
		t.Error("chapter.2.drafted = true, want false")
	}
	if !state.GetBool("chapter.3.drafted") {
		t.Error("chapter.3.drafted = false, want true")
	}

	if n := len(jrnl.EntriesByType(journal.EntryInvocationFailed)); n != 1 {
		t.Errorf("failed entries = %d, want 1", n)
	}
}

func TestDispatchCapabilityFactsMerged(t *testing.T) {
	state := world.NewState()

	invoker := capability.InvokerFunc(func(ctx context.Context, inv plan.Invocation) (capability.Result, error) {
		// The outline capability learns the chapter count from the
		// generated content.
		return capability.Result{
			Facts: []world.Effect{world.SetInt("chapter.count", 4)},
		}, nil
	})
	dispatcher, _ := newTestDispatcher(t, state, invoker)

	step := plan.NewSingle(plan.Invocation{ActionID: "create_outline"})
	result, err := dispatcher.Execute(context.Background(), 1, step)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !state.GetBool("outline.exists") {
		t.Error("outline.exists = false, want true")
	}
	if got := state.GetInt("chapter.count"); got != 4 {
		t.Errorf("chapter.count = %d, want 4", got)
	}
	if len(result.Applied) != 2 {
		t.Errorf("Applied = %d effects, want 2", len(result.Applied))
	}
}

func TestDispatchTerminalStepRejected(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t, world.NewState(), okInvoker())

	for _, step := range []plan.Step{plan.Done(), plan.Blocked()} {
		if _, err := dispatcher.Execute(context.Background(), 1, step); err == nil {
			t.Errorf("Execute(%s) expected error", step.Kind)
		}
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	state := world.NewState()
	dispatcher, _ := newTestDispatcher(t, state, okInvoker())

	step := plan.NewSingle(plan.Invocation{ActionID: "not_registered"})
	_, err := dispatcher.Execute(context.Background(), 1, step)
	if !errors.Is(err, action.ErrActionNotFound) {
		t.Errorf("Execute() error = %v, want ErrActionNotFound", err)
	}
	if state.Len() != 0 {
		t.Error("world mutated by rejected step")
	}
}

func TestDispatchTaskIDsUnique(t *testing.T) {
	state := world.NewState()
	state.Set("chapter.count", world.Int(2))
	dispatcher, _ := newTestDispatcher(t, state, okInvoker())

	step := plan.NewBatch([]plan.Invocation{
		{ActionID: "draft_chapter", Target: "1"},
		{ActionID: "draft_chapter", Target: "2"},
	})
	result, err := dispatcher.Execute(context.Background(), 1, step)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	seen := make(map[string]bool)
	for _, outcome := range result.Succeeded {
		if outcome.Task.ID == "" {
			t.Error("task ID empty")
		}
		if seen[outcome.Task.ID] {
			t.Errorf("duplicate task ID %s", outcome.Task.ID)
		}
		seen[outcome.Task.ID] = true
	}
}

func TestNewDispatcherValidation(t *testing.T) {
	registry := memory.NewActionRegistry()
	executor := resilience.NewExecutor()

	tests := []struct {
		name   string
		config Config
	}{
		{"missing world", Config{Registry: registry, Invoker: okInvoker(), Executor: executor}},
		{"missing registry", Config{World: world.NewState(), Invoker: okInvoker(), Executor: executor}},
		{"missing invoker", Config{World: world.NewState(), Registry: registry, Executor: executor}},
		{"missing executor", Config{World: world.NewState(), Registry: registry, Invoker: okInvoker()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDispatcher(tt.config); err == nil {
				t.Error("NewDispatcher() expected error")
			}
		})
	}
}
