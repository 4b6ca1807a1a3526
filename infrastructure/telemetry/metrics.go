// Package telemetry provides observability infrastructure including
// OpenTelemetry metrics support for the autopilot engine.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	planningCycles   metric.Int64Counter
	invocations      metric.Int64Counter
	stateTransitions metric.Int64Counter
	effectsApplied   metric.Int64Counter
	errors           metric.Int64Counter

	// Histograms
	invocationDuration metric.Float64Histogram
	planningDuration   metric.Float64Histogram
	sessionDuration    metric.Float64Histogram
	batchSize          metric.Int64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	activeSessions metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Attributes are default attributes to attach to all metrics.
	Attributes []attribute.KeyValue
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/storyforge/autopilot-go",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	provider := otel.GetMeterProvider()
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.planningCycles, err = mp.meter.Int64Counter(
		"autopilot.planning.cycles",
		metric.WithDescription("Number of plan/execute cycles"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return err
	}

	mp.invocations, err = mp.meter.Int64Counter(
		"autopilot.invocations",
		metric.WithDescription("Number of capability invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return err
	}

	mp.stateTransitions, err = mp.meter.Int64Counter(
		"autopilot.session.transitions",
		metric.WithDescription("Number of session state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.effectsApplied, err = mp.meter.Int64Counter(
		"autopilot.effects.applied",
		metric.WithDescription("Number of world state effects applied"),
		metric.WithUnit("{effect}"),
	)
	if err != nil {
		return err
	}

	mp.errors, err = mp.meter.Int64Counter(
		"autopilot.errors",
		metric.WithDescription("Number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mp.invocationDuration, err = mp.meter.Float64Histogram(
		"autopilot.invocation.duration",
		metric.WithDescription("Duration of capability invocations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.planningDuration, err = mp.meter.Float64Histogram(
		"autopilot.planning.duration",
		metric.WithDescription("Duration of step selection"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.sessionDuration, err = mp.meter.Float64Histogram(
		"autopilot.session.duration",
		metric.WithDescription("Duration of autopilot sessions"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.batchSize, err = mp.meter.Int64Histogram(
		"autopilot.batch.size",
		metric.WithDescription("Number of invocations per batch step"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return err
	}

	mp.activeSessions, err = mp.meter.Int64UpDownCounter(
		"autopilot.sessions.active",
		metric.WithDescription("Number of active autopilot sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordCycle records a completed plan/execute cycle.
func (mp *MetricsProvider) RecordCycle(ctx context.Context, sessionID string, stepKind string) {
	attrs := []attribute.KeyValue{
		attribute.String("session.id", sessionID),
		attribute.String("step.kind", stepKind),
	}

	mp.planningCycles.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInvocation records a capability invocation outcome.
func (mp *MetricsProvider) RecordInvocation(ctx context.Context, actionID string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("action.id", actionID),
		attribute.Bool("success", success),
	}

	mp.invocations.Add(ctx, 1, metric.WithAttributes(attrs...))
	mp.invocationDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if !success {
		mp.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error.type", "invocation"),
			attribute.String("action.id", actionID),
		))
	}
}

// RecordStateTransition records a session state transition.
func (mp *MetricsProvider) RecordStateTransition(ctx context.Context, fromStatus, toStatus string, sessionID string) {
	attrs := []attribute.KeyValue{
		attribute.String("status.from", fromStatus),
		attribute.String("status.to", toStatus),
		attribute.String("session.id", sessionID),
	}

	mp.stateTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEffectsApplied records world state effects applied in a cycle.
func (mp *MetricsProvider) RecordEffectsApplied(ctx context.Context, sessionID string, count int) {
	attrs := []attribute.KeyValue{
		attribute.String("session.id", sessionID),
	}

	mp.effectsApplied.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordError records an error.
func (mp *MetricsProvider) RecordError(ctx context.Context, errorType string, details map[string]string) {
	attrs := []attribute.KeyValue{
		attribute.String("error.type", errorType),
	}
	for k, v := range details {
		attrs = append(attrs, attribute.String(k, v))
	}

	mp.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPlanningDuration records the duration of a step selection.
func (mp *MetricsProvider) RecordPlanningDuration(ctx context.Context, duration time.Duration, stepKind string) {
	attrs := []attribute.KeyValue{
		attribute.String("step.kind", stepKind),
	}

	mp.planningDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordSessionDuration records the duration of a finished session.
func (mp *MetricsProvider) RecordSessionDuration(ctx context.Context, duration time.Duration, finalStatus string) {
	attrs := []attribute.KeyValue{
		attribute.String("status.final", finalStatus),
	}

	mp.sessionDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordBatchSize records the size of a dispatched batch.
func (mp *MetricsProvider) RecordBatchSize(ctx context.Context, actionID string, size int) {
	attrs := []attribute.KeyValue{
		attribute.String("action.id", actionID),
	}

	mp.batchSize.Record(ctx, int64(size), metric.WithAttributes(attrs...))
}

// IncrementActiveSessions increments the active sessions counter.
func (mp *MetricsProvider) IncrementActiveSessions(ctx context.Context) {
	mp.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the active sessions counter.
func (mp *MetricsProvider) DecrementActiveSessions(ctx context.Context) {
	mp.activeSessions.Add(ctx, -1)
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordCycle is a no-op.
func (n *NoopMetricsProvider) RecordCycle(ctx context.Context, sessionID string, stepKind string) {}

// RecordInvocation is a no-op.
func (n *NoopMetricsProvider) RecordInvocation(ctx context.Context, actionID string, success bool, duration time.Duration) {
}

// RecordStateTransition is a no-op.
func (n *NoopMetricsProvider) RecordStateTransition(ctx context.Context, fromStatus, toStatus string, sessionID string) {
}

// RecordEffectsApplied is a no-op.
func (n *NoopMetricsProvider) RecordEffectsApplied(ctx context.Context, sessionID string, count int) {
}

// RecordError is a no-op.
func (n *NoopMetricsProvider) RecordError(ctx context.Context, errorType string, details map[string]string) {
}

// RecordPlanningDuration is a no-op.
func (n *NoopMetricsProvider) RecordPlanningDuration(ctx context.Context, duration time.Duration, stepKind string) {
}

// RecordSessionDuration is a no-op.
func (n *NoopMetricsProvider) RecordSessionDuration(ctx context.Context, duration time.Duration, finalStatus string) {
}

// RecordBatchSize is a no-op.
func (n *NoopMetricsProvider) RecordBatchSize(ctx context.Context, actionID string, size int) {}

// IncrementActiveSessions is a no-op.
func (n *NoopMetricsProvider) IncrementActiveSessions(ctx context.Context) {}

// DecrementActiveSessions is a no-op.
func (n *NoopMetricsProvider) DecrementActiveSessions(ctx context.Context) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordCycle(ctx context.Context, sessionID string, stepKind string)
	RecordInvocation(ctx context.Context, actionID string, success bool, duration time.Duration)
	RecordStateTransition(ctx context.Context, fromStatus, toStatus string, sessionID string)
	RecordEffectsApplied(ctx context.Context, sessionID string, count int)
	RecordError(ctx context.Context, errorType string, details map[string]string)
	RecordPlanningDuration(ctx context.Context, duration time.Duration, stepKind string)
	RecordSessionDuration(ctx context.Context, duration time.Duration, finalStatus string)
	RecordBatchSize(ctx context.Context, actionID string, size int)
	IncrementActiveSessions(ctx context.Context)
	DecrementActiveSessions(ctx context.Context)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
