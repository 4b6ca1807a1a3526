// Package resilience wraps capability invocations with bulkhead,
// circuit breaker, and retry policies from fortify.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/storyforge/autopilot-go/domain/capability"
	"github.com/storyforge/autopilot-go/domain/plan"
	"github.com/storyforge/autopilot-go/infrastructure/logging"
)

// Executor runs capability invocations under resilience policies.
// Calls are limited by a bulkhead, guarded by a circuit breaker, and
// retried when the action is declared idempotent.
type Executor struct {
	bulkhead bulkhead.Bulkhead[capability.Result]
	breaker  circuitbreaker.CircuitBreaker[capability.Result]
	retry    retry.Retry[capability.Result]
	timeout  time.Duration
}

// NewExecutor creates an executor with the given options applied on
// top of defaults.
func NewExecutor(opts ...Option) *Executor {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Executor{
		bulkhead: bulkhead.New[capability.Result](bulkhead.Config{
			MaxConcurrent: config.maxConcurrent,
		}),
		breaker: circuitbreaker.New[capability.Result](circuitbreaker.Config{
			MaxRequests: config.breakerMaxRequests,
			Interval:    config.breakerInterval,
			Timeout:     config.breakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= config.breakerFailures
			},
		}),
		retry: retry.New[capability.Result](retry.Config{
			MaxAttempts:   config.retryAttempts,
			InitialDelay:  config.retryDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
		}),
		timeout: config.timeout,
	}
}

// Execute invokes the capability for a single invocation. The call is
// admitted through the bulkhead, bounded by the step timeout, and run
// behind the circuit breaker. Idempotent actions are retried on
// failure; non-idempotent actions get exactly one attempt.
func (e *Executor) Execute(ctx context.Context, inv plan.Invocation, invoker capability.Invoker, idempotent bool) (capability.Result, error) {
	return e.bulkhead.Execute(ctx, func(ctx context.Context) (capability.Result, error) {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		call := func(ctx context.Context) (capability.Result, error) {
			return e.breaker.Execute(ctx, func(ctx context.Context) (capability.Result, error) {
				result, err := invoker.Invoke(ctx, inv)
				if err != nil {
					if errors.Is(err, context.DeadlineExceeded) {
						err = capability.ErrInvocationTimeout
					}
					logging.Debug().
						Add(logging.ActionID(inv.ActionID)).
						Add(logging.Target(inv.Target)).
						Add(logging.ErrorField(err)).
						Msg("invocation attempt failed")
					return capability.Result{}, err
				}
				return result, nil
			})
		}

		if idempotent {
			return e.retry.Do(ctx, call)
		}
		return call(ctx)
	})
}

// Timeout returns the per-invocation timeout.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}
