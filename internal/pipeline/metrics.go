package pipeline

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/reasongraph/internal/model"
)

// Package-level tracer and meter for pipeline mutations.
var (
	tracer = otel.Tracer("reasongraph.pipeline")
	meter  = otel.Meter("reasongraph.pipeline")
)

// Metrics for pipeline mutations.
var (
	mutationLatency  metric.Float64Histogram
	mutationTotal    metric.Int64Counter
	recomputeTotal   metric.Int64Counter
	propagationDepth metric.Int64Histogram
	truncatedTotal   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		mutationLatency, err = meter.Float64Histogram(
			"reasongraph_mutation_duration_seconds",
			metric.WithDescription("Duration of mutations including propagation"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		mutationTotal, err = meter.Int64Counter(
			"reasongraph_mutations_total",
			metric.WithDescription("Total number of mutations by operation and outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		recomputeTotal, err = meter.Int64Counter(
			"reasongraph_recomputes_total",
			metric.WithDescription("Total number of node recomputations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		propagationDepth, err = meter.Int64Histogram(
			"reasongraph_propagation_depth",
			metric.WithDescription("Deepest level reached per mutation"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		truncatedTotal, err = meter.Int64Counter(
			"reasongraph_propagation_truncated_total",
			metric.WithDescription("Mutations whose propagation hit max depth"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startMutationSpan creates a span for a single mutation.
func startMutationSpan(ctx context.Context, topic, op, subject string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Pipeline."+op,
		trace.WithAttributes(
			attribute.String("reasongraph.topic", topic),
			attribute.String("reasongraph.operation", op),
			attribute.String("reasongraph.subject", subject),
		),
	)
}

// endMutationSpan sets the result attributes on a mutation span.
func endMutationSpan(span trace.Span, tr model.Trace, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("reasongraph.mutation_id", tr.MutationID),
		attribute.Int("reasongraph.recomputes", len(tr.Events)),
		attribute.Int("reasongraph.changed", len(tr.Changed())),
		attribute.Int("reasongraph.depth", tr.MaxDepth()),
		attribute.Bool("reasongraph.truncated", tr.Truncated),
	)
}

// recordMutation records metrics for one mutation.
func recordMutation(ctx context.Context, topic, op string, tr model.Trace, duration time.Duration, err error) {
	if initMetrics() != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("operation", op),
		attribute.Bool("success", err == nil),
	)
	mutationLatency.Record(ctx, duration.Seconds(), attrs)
	mutationTotal.Add(ctx, 1, attrs)
	if err != nil {
		return
	}

	opAttr := metric.WithAttributes(attribute.String("operation", op))
	recomputeTotal.Add(ctx, int64(len(tr.Events)), opAttr)
	propagationDepth.Record(ctx, int64(tr.MaxDepth()), opAttr)
	if tr.Truncated {
		truncatedTotal.Add(ctx, 1, opAttr)
	}
}
