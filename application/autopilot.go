// Package application provides the orchestration layer for the
// autopilot engine: it owns the plan/execute loop that drives a
// project's world state toward a goal.
package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storyforge/autopilot-go/domain/action"
	"github.com/storyforge/autopilot-go/domain/capability"
	"github.com/storyforge/autopilot-go/domain/journal"
	"github.com/storyforge/autopilot-go/domain/plan"
	"github.com/storyforge/autopilot-go/domain/session"
	"github.com/storyforge/autopilot-go/domain/world"
	"github.com/storyforge/autopilot-go/infrastructure/dispatch"
	"github.com/storyforge/autopilot-go/infrastructure/logging"
	"github.com/storyforge/autopilot-go/infrastructure/resilience"
	"github.com/storyforge/autopilot-go/infrastructure/statemachine"
	"github.com/storyforge/autopilot-go/infrastructure/telemetry"
)

const defaultMaxCycles = 64

// Autopilot drives plan/execute sessions. At most one session per
// project runs at a time; each session owns its world state copy for
// its whole lifetime and persists it back on exit.
type Autopilot struct {
	registry  action.Registry
	invoker   capability.Invoker
	executor  *resilience.Executor
	store     world.Store
	metrics   telemetry.Metrics
	maxCycles int

	mu     sync.Mutex
	active map[string]*run
}

// run bundles everything a live session carries.
type run struct {
	sess       *session.Session
	jrnl       *journal.Journal
	interp     *statemachine.Interpreter
	world      *world.State
	dispatcher *dispatch.Dispatcher
}

// Config assembles an Autopilot's collaborators.
type Config struct {
	// Registry holds the action definitions available to the planner.
	Registry action.Registry

	// Invoker executes capabilities.
	Invoker capability.Invoker

	// Store persists world states between sessions.
	Store world.Store

	// Executor applies resilience policies to invocations. Optional; a
	// default executor is used when nil.
	Executor *resilience.Executor

	// Metrics records telemetry. Optional; defaults to a no-op.
	Metrics telemetry.Metrics

	// MaxCycles bounds the number of plan/execute cycles per session.
	// Sessions that exceed it finish Blocked. Zero means the default.
	MaxCycles int
}

// NewAutopilot creates an autopilot service.
func NewAutopilot(config Config) (*Autopilot, error) {
	if config.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if config.Invoker == nil {
		return nil, errors.New("invoker is required")
	}
	if config.Store == nil {
		return nil, errors.New("store is required")
	}

	a := &Autopilot{
		registry:  config.Registry,
		invoker:   config.Invoker,
		executor:  config.Executor,
		store:     config.Store,
		metrics:   config.Metrics,
		maxCycles: config.MaxCycles,
		active:    make(map[string]*run),
	}

	if a.executor == nil {
		a.executor = resilience.NewExecutor()
	}
	if a.metrics == nil {
		a.metrics = &telemetry.NoopMetricsProvider{}
	}
	if a.maxCycles <= 0 {
		a.maxCycles = defaultMaxCycles
	}

	return a, nil
}

// Start begins an autopilot session for a project. It loads the
// project's world state (a missing state starts empty), spawns the
// plan/execute loop, and returns immediately. A project with a live
// session cannot start another.
func (a *Autopilot) Start(ctx context.Context, projectID string, goal plan.Goal) (*session.Session, error) {
	if projectID == "" {
		return nil, world.ErrInvalidProjectID
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.active[projectID]; ok && !existing.sess.Status().Terminal() {
		return nil, session.ErrSessionAlreadyActive
	}

	state, err := a.store.Load(ctx, projectID)
	if err != nil {
		if !errors.Is(err, world.ErrNotFound) {
			return nil, err
		}
		state = world.NewState()
	}

	sess := session.New(uuid.New().String(), projectID, goal)
	jrnl := journal.New(sess.ID())

	machine, err := statemachine.NewSessionMachine()
	if err != nil {
		return nil, err
	}
	interp := statemachine.NewInterpreter(machine, statemachine.NewContext(sess, jrnl))

	dispatcher, err := dispatch.NewDispatcher(dispatch.Config{
		World:    state,
		Registry: a.registry,
		Invoker:  a.invoker,
		Executor: a.executor,
		Journal:  jrnl,
		Metrics:  a.metrics,
	})
	if err != nil {
		return nil, err
	}

	jrnl.RecordSessionStarted(projectID, goal)
	if err := interp.Start(); err != nil {
		return nil, err
	}
	a.metrics.IncrementActiveSessions(ctx)
	a.metrics.RecordStateTransition(ctx, session.StatusIdle.String(), session.StatusRunning.String(), sess.ID())

	r := &run{
		sess:       sess,
		jrnl:       jrnl,
		interp:     interp,
		world:      state,
		dispatcher: dispatcher,
	}
	a.active[projectID] = r

	logging.Info().
		Add(logging.SessionID(sess.ID())).
		Add(logging.ProjectID(projectID)).
		Add(logging.Goal(goal.Name())).
		Msg("session started")

	go a.loop(ctx, r)

	return sess, nil
}

// Run starts a session and blocks until it reaches a terminal status.
func (a *Autopilot) Run(ctx context.Context, projectID string, goal plan.Goal) (*session.Session, error) {
	sess, err := a.Start(ctx, projectID, goal)
	if err != nil {
		return nil, err
	}
	if err := sess.Wait(ctx); err != nil {
		return sess, err
	}
	return sess, nil
}

// loop is the session's plan/execute cycle. It runs on its own
// goroutine; the session's world state is touched by no one else.
func (a *Autopilot) loop(ctx context.Context, r *run) {
	cycle := 0
	for {
		// Cancellation is honored at cycle boundaries; an in-flight
		// batch always settles first.
		if ctx.Err() != nil || r.sess.CancelRequested() {
			a.finish(r, session.StatusCancelled, "cancellation requested")
			return
		}

		if cycle >= a.maxCycles {
			a.finish(r, session.StatusBlocked, "max cycles exceeded")
			return
		}
		cycle++

		planStart := time.Now()
		step := plan.Select(r.world, r.sess.Goal(), a.registry)
		a.metrics.RecordPlanningDuration(ctx, time.Since(planStart), string(step.Kind))
		r.jrnl.RecordStepSelected(cycle, step)

		logging.Debug().
			Add(logging.SessionID(r.sess.ID())).
			Add(logging.Cycle(cycle)).
			Add(logging.StepKind(string(step.Kind))).
			Add(logging.BatchSize(step.Size())).
			Msg("step selected")

		switch step.Kind {
		case plan.StepDone:
			a.finish(r, session.StatusDone, "goal satisfied")
			return
		case plan.StepBlocked:
			a.finish(r, session.StatusBlocked, "no eligible action")
			return
		}

		result, err := r.dispatcher.Execute(ctx, cycle, step)
		if err != nil {
			a.metrics.RecordError(ctx, "dispatch", map[string]string{"session.id": r.sess.ID()})
			a.finish(r, session.StatusBlocked, err.Error())
			return
		}

		if !result.AllSucceeded() {
			logging.Warn().
				Add(logging.SessionID(r.sess.ID())).
				Add(logging.Cycle(cycle)).
				Add(logging.Count(len(result.Failed))).
				Msg("step finished with failures")
		}

		r.sess.RecordCycle()
		a.metrics.RecordCycle(ctx, r.sess.ID(), string(step.Kind))
	}
}

// finish saves the world, records the terminal transition, and
// releases the session. The save uses a fresh context so a cancelled
// session still persists its progress.
func (a *Autopilot) finish(r *run, status session.Status, reason string) {
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.store.Save(saveCtx, r.sess.ProjectID(), r.world); err != nil {
		logging.Error().
			Add(logging.SessionID(r.sess.ID())).
			Add(logging.ProjectID(r.sess.ProjectID())).
			Add(logging.ErrorField(err)).
			Msg("failed to save world state")
	} else {
		r.jrnl.RecordWorldSaved(r.sess.ProjectID(), r.sess.Cycles())
	}

	r.sess.SetWorld(r.world)

	fromStatus := r.sess.Status()
	if err := r.interp.Finish(status, reason); err != nil {
		// The machine refused the transition; finish the aggregate
		// directly so waiters unblock.
		r.sess.Finish(status, reason)
	}
	r.jrnl.RecordSessionFinished(status, reason, r.sess.Cycles())

	a.metrics.RecordStateTransition(saveCtx, fromStatus.String(), status.String(), r.sess.ID())
	a.metrics.RecordSessionDuration(saveCtx, r.sess.Duration(), status.String())
	a.metrics.DecrementActiveSessions(saveCtx)

	logging.Info().
		Add(logging.SessionID(r.sess.ID())).
		Add(logging.ProjectID(r.sess.ProjectID())).
		Add(logging.Status(status.String())).
		Add(logging.Reason(reason)).
		Add(logging.Cycle(r.sess.Cycles())).
		Add(logging.Duration(r.sess.Duration())).
		Msg("session finished")
}

// Cancel requests cooperative cancellation of a project's session. The
// loop honors the request at its next cycle boundary.
func (a *Autopilot) Cancel(projectID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.active[projectID]
	if !ok {
		return session.ErrNoSession
	}
	if r.sess.Status().Terminal() {
		return session.ErrSessionNotRunning
	}

	r.sess.RequestCancel()
	return nil
}

// Session returns the session for a project, live or finished.
func (a *Autopilot) Session(projectID string) (*session.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.active[projectID]
	if !ok {
		return nil, session.ErrNoSession
	}
	return r.sess, nil
}

// Journal returns the journal for a project's session.
func (a *Autopilot) Journal(projectID string) (*journal.Journal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.active[projectID]
	if !ok {
		return nil, session.ErrNoSession
	}
	return r.jrnl, nil
}
