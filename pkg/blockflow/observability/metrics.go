package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records blockflow metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordBlockExecution records one block execution with its duration
	// and error status.
	RecordBlockExecution(ctx context.Context, blockNumber, kind string, duration time.Duration, err error)

	// RecordWorkflowRun records a terminated workflow execution.
	RecordWorkflowRun(ctx context.Context, status string, duration time.Duration, blocks int)

	// RecordRetry records one retry of a block dispatch.
	RecordRetry(ctx context.Context, blockNumber string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	blockExecutions metric.Int64Counter
	blockLatency    metric.Float64Histogram
	blockFailures   metric.Int64Counter
	blockRetries    metric.Int64Counter
	workflowRuns    metric.Int64Counter
	workflowLatency metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("blockflow")

	blockExecutions, err := meter.Int64Counter("blockflow.block.executions",
		metric.WithDescription("Number of block executions"),
	)
	if err != nil {
		return nil, err
	}

	blockLatency, err := meter.Float64Histogram("blockflow.block.latency_ms",
		metric.WithDescription("Block execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	blockFailures, err := meter.Int64Counter("blockflow.block.failures",
		metric.WithDescription("Number of failed block executions"),
	)
	if err != nil {
		return nil, err
	}

	blockRetries, err := meter.Int64Counter("blockflow.block.retries",
		metric.WithDescription("Number of block dispatch retries"),
	)
	if err != nil {
		return nil, err
	}

	workflowRuns, err := meter.Int64Counter("blockflow.workflow.runs",
		metric.WithDescription("Number of workflow executions"),
	)
	if err != nil {
		return nil, err
	}

	workflowLatency, err := meter.Float64Histogram("blockflow.workflow.latency_ms",
		metric.WithDescription("Workflow execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		blockExecutions: blockExecutions,
		blockLatency:    blockLatency,
		blockFailures:   blockFailures,
		blockRetries:    blockRetries,
		workflowRuns:    workflowRuns,
		workflowLatency: workflowLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordBlockExecution records a block execution.
func (m *otelMetrics) RecordBlockExecution(ctx context.Context, blockNumber, kind string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("block_number", blockNumber),
		attribute.String("kind", kind),
	}

	m.blockExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.blockLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.blockFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordWorkflowRun records a workflow execution.
func (m *otelMetrics) RecordWorkflowRun(ctx context.Context, status string, duration time.Duration, blocks int) {
	attrs := []attribute.KeyValue{
		attribute.String("status", status),
		attribute.Int("blocks", blocks),
	}
	m.workflowRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.workflowLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordRetry records a dispatch retry.
func (m *otelMetrics) RecordRetry(ctx context.Context, blockNumber string) {
	m.blockRetries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("block_number", blockNumber),
	))
}
