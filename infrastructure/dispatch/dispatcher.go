package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/storyforge/autopilot-go/domain/action"
	"github.com/storyforge/autopilot-go/domain/capability"
	"github.com/storyforge/autopilot-go/domain/journal"
	"github.com/storyforge/autopilot-go/domain/plan"
	"github.com/storyforge/autopilot-go/domain/world"
	"github.com/storyforge/autopilot-go/infrastructure/logging"
	"github.com/storyforge/autopilot-go/infrastructure/resilience"
	"github.com/storyforge/autopilot-go/infrastructure/telemetry"
)

// Dispatcher executes plan steps. Batch invocations fan out
// concurrently through the resilience executor; the dispatcher waits
// for every task to settle, then applies the combined effects of the
// successful tasks to the world state in one atomic update. The
// dispatcher is the world state's sole writer.
type Dispatcher struct {
	world    *world.State
	registry action.Registry
	invoker  capability.Invoker
	executor *resilience.Executor
	journal  *journal.Journal
	metrics  telemetry.Metrics
}

// Config assembles a dispatcher's collaborators.
type Config struct {
	World    *world.State
	Registry action.Registry
	Invoker  capability.Invoker
	Executor *resilience.Executor
	Journal  *journal.Journal
	Metrics  telemetry.Metrics
}

// NewDispatcher creates a dispatcher. World, registry, invoker, and
// executor are required; journal and metrics default to no-ops.
func NewDispatcher(config Config) (*Dispatcher, error) {
	if config.World == nil {
		return nil, fmt.Errorf("dispatcher requires a world state")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("dispatcher requires an action registry")
	}
	if config.Invoker == nil {
		return nil, fmt.Errorf("dispatcher requires a capability invoker")
	}
	if config.Executor == nil {
		return nil, fmt.Errorf("dispatcher requires a resilience executor")
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &telemetry.NoopMetricsProvider{}
	}

	return &Dispatcher{
		world:    config.World,
		registry: config.Registry,
		invoker:  config.Invoker,
		executor: config.Executor,
		journal:  config.Journal,
		metrics:  metrics,
	}, nil
}

// Execute runs one plan step. Done and Blocked steps carry no work and
// are rejected as usage errors; capability failures are not errors at
// this level, they land in Result.Failed.
func (d *Dispatcher) Execute(ctx context.Context, cycle int, step plan.Step) (Result, error) {
	switch step.Kind {
	case plan.StepSingle, plan.StepBatch:
	default:
		return Result{}, fmt.Errorf("step %s carries no invocations to dispatch", step.Kind)
	}
	if len(step.Invocations) == 0 {
		return Result{}, fmt.Errorf("step %s has no invocations", step.Kind)
	}

	tasks := make([]Task, len(step.Invocations))
	for i, inv := range step.Invocations {
		if !d.registry.Has(inv.ActionID) {
			return Result{}, fmt.Errorf("dispatch %s: %w", inv.ActionID, action.ErrActionNotFound)
		}
		tasks[i] = NewTask(inv)
	}

	if step.Kind == plan.StepBatch {
		d.metrics.RecordBatchSize(ctx, tasks[0].Invocation.ActionID, len(tasks))
	}

	settled := d.run(ctx, cycle, tasks)

	result := d.collect(settled)
	d.apply(ctx, cycle, &result)
	return result, nil
}

type settledTask struct {
	index   int
	task    Task
	outcome capability.Result
	effects []world.Effect
	err     error
}

// run fans the tasks out and waits for all of them to settle. A failed
// or timed-out task never cancels its siblings.
func (d *Dispatcher) run(ctx context.Context, cycle int, tasks []Task) []settledTask {
	settled := make([]settledTask, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			settled[i] = d.runTask(ctx, cycle, i, task)
		}(i, task)
	}

	wg.Wait()
	return settled
}

func (d *Dispatcher) runTask(ctx context.Context, cycle, index int, task Task) settledTask {
	def, ok := d.registry.Get(task.Invocation.ActionID)
	if !ok {
		task.Status = TaskFailed
		return settledTask{index: index, task: task, err: action.ErrActionNotFound}
	}

	task.Status = TaskRunning
	start := time.Now()
	result, err := d.executor.Execute(ctx, task.Invocation, d.invoker, def.Idempotent())
	elapsed := time.Since(start)
	if result.Duration == 0 {
		result.Duration = elapsed
	}

	d.metrics.RecordInvocation(ctx, task.Invocation.ActionID, err == nil, elapsed)

	if err != nil {
		task.Status = TaskFailed
		if d.journal != nil {
			d.journal.RecordInvocationFailed(cycle, task.ID, task.Invocation, err)
		}
		logging.Warn().
			Add(logging.TaskID(task.ID)).
			Add(logging.ActionID(task.Invocation.ActionID)).
			Add(logging.Target(task.Invocation.Target)).
			Add(logging.Cycle(cycle)).
			Add(logging.ErrorField(err)).
			Msg("invocation failed")
		return settledTask{index: index, task: task, err: err}
	}

	task.Status = TaskSucceeded
	if d.journal != nil {
		d.journal.RecordInvocationSucceeded(cycle, task.ID, task.Invocation, result.Output, result.Duration)
	}
	logging.Debug().
		Add(logging.TaskID(task.ID)).
		Add(logging.ActionID(task.Invocation.ActionID)).
		Add(logging.Target(task.Invocation.Target)).
		Add(logging.Cycle(cycle)).
		Add(logging.Duration(result.Duration)).
		Msg("invocation succeeded")

	effects := d.declaredEffects(def, task.Invocation)
	effects = append(effects, result.Facts...)
	return settledTask{index: index, task: task, outcome: result, effects: effects}
}

// declaredEffects resolves the effects an action declares for an
// invocation: base effects for single steps, per-target effects for
// batch members.
func (d *Dispatcher) declaredEffects(def *action.Definition, inv plan.Invocation) []world.Effect {
	if inv.Target != "" && def.Batchable() {
		return def.Expansion().TargetEffects(inv.Target)
	}
	return def.Effects()
}

// collect partitions settled tasks and merges the effects of the
// successful ones. Within a step, later tasks win on conflicting keys;
// sorting by index keeps the merge deterministic.
func (d *Dispatcher) collect(settled []settledTask) Result {
	sort.Slice(settled, func(i, j int) bool {
		return settled[i].index < settled[j].index
	})

	var result Result
	for _, s := range settled {
		if s.err != nil {
			result.Failed = append(result.Failed, Failure{Task: s.task, Err: s.err})
			continue
		}
		result.Succeeded = append(result.Succeeded, Outcome{
			Task:     s.task,
			Output:   s.outcome.Output,
			Effects:  s.effects,
			Duration: s.outcome.Duration,
		})
		result.Applied = append(result.Applied, s.effects...)
	}
	return result
}

// apply writes the combined effects to the world state as one update.
// A partially failed batch still applies the effects of its successes.
func (d *Dispatcher) apply(ctx context.Context, cycle int, result *Result) {
	if len(result.Applied) == 0 {
		return
	}

	d.world.Apply(result.Applied)
	d.metrics.RecordEffectsApplied(ctx, sessionIDOf(d.journal), len(result.Applied))
	if d.journal != nil {
		d.journal.RecordEffectsApplied(cycle, result.Applied)
	}
}

func sessionIDOf(j *journal.Journal) string {
	if j == nil {
		return ""
	}
	return j.SessionID()
}
