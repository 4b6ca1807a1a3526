package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/storyforge/autopilot-go/domain/action"
	"github.com/storyforge/autopilot-go/domain/journal"
	"github.com/storyforge/autopilot-go/domain/plan"
	"github.com/storyforge/autopilot-go/domain/session"
	"github.com/storyforge/autopilot-go/domain/world"
	infracap "github.com/storyforge/autopilot-go/infrastructure/capability"
	"github.com/storyforge/autopilot-go/infrastructure/resilience"
	"github.com/storyforge/autopilot-go/infrastructure/storage/memory"
)

func novelRegistry(t *testing.T) *memory.ActionRegistry {
	t.Helper()

	createOutline, err := action.NewBuilder("create_outline").
		WithCapability("writer.create_outline").
		WithPreconditions(world.IsFalse("outline.exists")).
		WithEffects(world.SetBool("outline.exists", true)).
		Build()
	if err != nil {
		t.Fatalf("Build(create_outline) error = %v", err)
	}

	draftChapter, err := action.NewBuilder("draft_chapter").
		WithCapability("writer.draft_chapter").
		WithPreconditions(world.IsTrue("outline.exists")).
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
		t.Fatalf("Build(draft_chapter) error = %v", err)
	}

	registry := memory.NewActionRegistry()
	for _, def := range []*action.Definition{createOutline, draftChapter} {
		if err := registry.Register(def); err != nil {
			t.Fatalf("Register(%s) error = %v", def.ID(), err)
		}
	}
	return registry
}

func draftGoal(chapters int) plan.Goal {
	preds := []world.Predicate{world.IsTrue("outline.exists")}
	for i := 1; i <= chapters; i++ {
		preds = append(preds, world.IsTrue(world.FactKey(fmt.Sprintf("chapter.%d.drafted", i))))
	}
	return plan.NewGoal("complete_draft", preds...)
}

func TestAutopilotCompletesDraft(t *testing.T) {
	// The outline capability reports the chapter count it decided on;
	// the planner then fans chapter drafting out as one batch.
	invoker := infracap.NewScriptedInvoker().
		Script("create_outline", infracap.Outcome{
			Facts: []world.Effect{world.SetInt("chapter.count", 2)},
		}).
		Script("draft_chapter", infracap.Outcome{})

	store := memory.NewWorldStore()
	autopilot, err := NewAutopilot(Config{
		Registry: novelRegistry(t),
		Invoker:  invoker,
		Store:    store,
	})
	if err != nil {
		t.Fatalf("NewAutopilot() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := autopilot.Run(ctx, "proj-1", draftGoal(2))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := sess.Status(); got != session.StatusDone {
		t.Fatalf("Status() = %s (%s), want done", got, sess.Reason())
	}
	if got := sess.Cycles(); got != 2 {
		t.Errorf("Cycles() = %d, want 2", got)
	}

	// First the outline, then both chapters concurrently.
	calls := invoker.Calls()
	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(calls))
	}
	if calls[0].ActionID != "create_outline" {
		t.Errorf("calls[0] = %s, want create_outline", calls[0])
	}
	for _, call := range calls[1:] {
		if call.ActionID != "draft_chapter" {
			t.Errorf("call = %s, want draft_chapter", call)
		}
	}

	// The final world is persisted.
	persisted, err := store.Load(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !persisted.GetBool("outline.exists") {
		t.Error("persisted outline.exists = false, want true")
	}
	for i := 1; i <= 2; i++ {
		key := world.FactKey(fmt.Sprintf("chapter.%d.drafted", i))
		if !persisted.GetBool(key) {
			t.Errorf("persisted %s = false, want true", key)
		}
	}
}

func TestAutopilotJournalTrace(t *testing.T) {
	invoker := infracap.NewScriptedInvoker().
		Script("create_outline", infracap.Outcome{
			Facts: []world.Effect{world.SetInt("chapter.count", 1)},
		}).
		Script("draft_chapter", infracap.Outcome{})

	autopilot, err := NewAutopilot(Config{
		Registry: novelRegistry(t),
		Invoker:  invoker,
		Store:    memory.NewWorldStore(),
	})
	if err != nil {
		t.Fatalf("NewAutopilot() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := autopilot.Run(ctx, "proj-1", draftGoal(1)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	jrnl, err := autopilot.Journal("proj-1")
	if err != nil {
		t.Fatalf("Journal() error = %v", err)
	}

	if n := len(jrnl.EntriesByType(journal.EntrySessionStarted)); n != 1 {
		t.Errorf("session_started entries = %d, want 1", n)
	}
	if n := len(jrnl.EntriesByType(journal.EntrySessionFinished)); n != 1 {
		t.Errorf("session_finished entries = %d, want 1", n)
	}
	// idle->running plus running->done.
	if n := len(jrnl.EntriesByType(journal.EntryStateTransition)); n != 2 {
		t.Errorf("state_transition entries = %d, want 2", n)
	}
	// One per cycle plus the terminal Done selection.
	if n := len(jrnl.EntriesByType(journal.EntryStepSelected)); n != 3 {
		t.Errorf("step_selected entries = %d, want 3", n)
	}
	if n := len(jrnl.EntriesByType(journal.EntryWorldSaved)); n != 1 {
		t.Errorf("world_saved entries = %d, want 1", n)
	}
}

func TestAutopilotBlockedWhenNothingEligible(t *testing.T) {
	autopilot, err := NewAutopilot(Config{
		Registry: novelRegistry(t),
		Invoker:  infracap.NewScriptedInvoker(),
		Store:    memory.NewWorldStore(),
	})
	if err != nil {
		t.Fatalf("NewAutopilot() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	goal := plan.NewGoal("impossible", world.IsTrue("publisher.signed"))
	sess, err := autopilot.Run(ctx, "proj-1", goal)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := sess.Status(); got != session.StatusBlocked {
		t.Errorf("Status() = %s, want blocked", got)
	}
	if got := sess.Reason(); got != "no eligible action" {
		t.Errorf("Reason() = %q, want %q", got, "no eligible action")
	}
	if got := sess.Cycles(); got != 0 {
		t.Errorf("Cycles() = %d, want 0", got)
	}
}

func TestAutopilotSingleSessionPerProject(t *testing.T) {
	invoker := infracap.NewScriptedInvoker().
		Default(infracap.Outcome{}).
		WithLatency(300 * time.Millisecond)

	autopilot, err := NewAutopilot(Config{
		Registry: novelRegistry(t),
		Invoker:  invoker,
		Store:    memory.NewWorldStore(),
	})
	if err != nil {
		t.Fatalf("NewAutopilot() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := autopilot.Start(ctx, "proj-1", draftGoal(1))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, err := autopilot.Start(ctx, "proj-1", draftGoal(1)); !errors.Is(err, session.ErrSessionAlreadyActive) {
		t.Errorf("second Start() error = %v, want ErrSessionAlreadyActive", err)
	}

	// A different project is unaffected.
	if _, err := autopilot.Start(ctx, "proj-2", draftGoal(1)); err != nil {
		t.Errorf("Start(proj-2) error = %v", err)
	}

	if err := autopilot.Cancel("proj-1"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if err := sess.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	// Once the first session is terminal, the project can start again.
	if _, err := autopilot.Start(ctx, "proj-1", draftGoal(1)); err != nil {
		t.Errorf("Start() after terminal error = %v", err)
	}
}

func TestAutopilotCancellation(t *testing.T) {
	invoker := infracap.NewScriptedInvoker().
		Script("create_outline", infracap.Outcome{
			Facts: []world.Effect{world.SetInt("chapter.count", 1)},
		}).
		Script("draft_chapter", infracap.Outcome{}).
		WithLatency(200 * time.Millisecond)

	store := memory.NewWorldStore()
	autopilot, err := NewAutopilot(Config{
		Registry: novelRegistry(t),
		Invoker:  invoker,
		Store:    store,
	})
	if err != nil {
		t.Fatalf("NewAutopilot() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := autopilot.Start(ctx, "proj-1", draftGoal(1))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Cancel while the first invocation is in flight. The invocation
	// settles; the loop observes the request at the next cycle boundary.
	deadline := time.Now().Add(5 * time.Second)
	for invoker.CallCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first invocation never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := autopilot.Cancel("proj-1"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if err := sess.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if got := sess.Status(); got != session.StatusCancelled {
		t.Fatalf("Status() = %s, want cancelled", got)
	}
	if got := sess.Reason(); got != "cancellation requested" {
		t.Errorf("Reason() = %q", got)
	}

	// The settled cycle's effects were applied and persisted.
	persisted, err := store.Load(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !persisted.GetBool("outline.exists") {
		t.Error("persisted outline.exists = false, want settled effects saved")
	}
}

func TestAutopilotMaxCyclesBlocked(t *testing.T) {
	// The outline capability fails every time, so the world never
	// changes and the planner keeps selecting the same step.
	invoker := infracap.NewScriptedInvoker().
		Script("create_outline", infracap.Outcome{Err: errors.New("model unavailable")})

	autopilot, err := NewAutopilot(Config{
		Registry:  novelRegistry(t),
		Invoker:   invoker,
		Store:     memory.NewWorldStore(),
		Executor:  resilience.NewExecutor(resilience.WithBreakerFailures(100)),
		MaxCycles: 3,
	})
	if err != nil {
		t.Fatalf("NewAutopilot() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := autopilot.Run(ctx, "proj-1", draftGoal(1))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := sess.Status(); got != session.StatusBlocked {
		t.Fatalf("Status() = %s, want blocked", got)
	}
	if got := sess.Reason(); got != "max cycles exceeded" {
		t.Errorf("Reason() = %q, want %q", got, "max cycles exceeded")
	}
	if got := sess.Cycles(); got != 3 {
		t.Errorf("Cycles() = %d, want 3", got)
	}
}

func TestAutopilotPartialBatchFailureRetriesNextCycle(t *testing.T) {
	// Chapter 2 always fails; the others drain out of the batch on the
	// first cycle, leaving ever-smaller retry batches until max cycles.
	invoker := infracap.NewScriptedInvoker().
		Script("create_outline", infracap.Outcome{
			Facts: []world.Effect{world.SetInt("chapter.count", 3)},
		}).
		Script("draft_chapter", infracap.Outcome{}).
		ScriptTarget("draft_chapter", "2", infracap.Outcome{Err: errors.New("model refused")})

	store := memory.NewWorldStore()
	autopilot, err := NewAutopilot(Config{
		Registry:  novelRegistry(t),
		Invoker:   invoker,
		Store:     store,
		Executor:  resilience.NewExecutor(resilience.WithBreakerFailures(100)),
		MaxCycles: 5,
	})
	if err != nil {
		t.Fatalf("NewAutopilot() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := autopilot.Run(ctx, "proj-1", draftGoal(3))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := sess.Status(); got != session.StatusBlocked {
		t.Fatalf("Status() = %s, want blocked", got)
	}

	persisted, err := store.Load(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !persisted.GetBool("chapter.1.drafted") {
		t.Error("chapter.1.drafted = false, want true")
	}
	if persisted.GetBool("chapter.2.drafted") {
		t.Error("chapter.2.drafted = true, want false")
	}
	if !persisted.GetBool("chapter.3.drafted") {
		t.Error("chapter.3.drafted = false, want true")
	}
}

func TestAutopilotCancelWithoutSession(t *testing.T) {
	autopilot, err := NewAutopilot(Config{
		Registry: novelRegistry(t),
		Invoker:  infracap.NewScriptedInvoker(),
		Store:    memory.NewWorldStore(),
	})
	if err != nil {
		t.Fatalf("NewAutopilot() error = %v", err)
	}

	if err := autopilot.Cancel("unknown"); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Cancel() error = %v, want ErrNoSession", err)
	}
	if _, err := autopilot.Session("unknown"); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Session() error = %v, want ErrNoSession", err)
	}
}

func TestNewAutopilotValidation(t *testing.T) {
	registry := novelRegistry(t)
	invoker := infracap.NewScriptedInvoker()
	store := memory.NewWorldStore()

	tests := []struct {
		name   string
		config Config
	}{
		{"missing registry", Config{Invoker: invoker, Store: store}},
		{"missing invoker", Config{Registry: registry, Store: store}},
		{"missing store", Config{Registry: registry, Invoker: invoker}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAutopilot(tt.config); err == nil {
				t.Error("NewAutopilot() expected error")
			}
		})
	}
}
