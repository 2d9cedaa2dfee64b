// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics tracks function executions, semantic searches, and shell
// commands for production monitoring. A nil *RuntimeMetrics is a valid
// no-op recorder.
type RuntimeMetrics struct {
	executionCounter  metric.Int64Counter
	executionDuration metric.Float64Histogram
	searchCounter     metric.Int64Counter
	indexCounter      metric.Int64Counter
	shellCounter      metric.Int64Counter
}

// NewRuntimeMetrics creates the runtime metrics set on the global meter.
func NewRuntimeMetrics() (*RuntimeMetrics, error) {
	meter := otel.Meter("ergon/runtime")

	executionCounter, err := meter.Int64Counter(
		"ergon.executions.total",
		metric.WithDescription("Function executions by id and status"),
	)
	if err != nil {
		return nil, err
	}

	executionDuration, err := meter.Float64Histogram(
		"ergon.executions.duration_ms",
		metric.WithDescription("Function execution wall time in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	searchCounter, err := meter.Int64Counter(
		"ergon.searches.total",
		metric.WithDescription("Semantic searches by collection"),
	)
	if err != nil {
		return nil, err
	}

	indexCounter, err := meter.Int64Counter(
		"ergon.indexed.total",
		metric.WithDescription("Points indexed by collection"),
	)
	if err != nil {
		return nil, err
	}

	shellCounter, err := meter.Int64Counter(
		"ergon.shell.commands.total",
		metric.WithDescription("Shell commands executed"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		executionCounter:  executionCounter,
		executionDuration: executionDuration,
		searchCounter:     searchCounter,
		indexCounter:      indexCounter,
		shellCounter:      shellCounter,
	}, nil
}

// RecordExecution counts one function execution and its duration.
func (m *RuntimeMetrics) RecordExecution(ctx context.Context, functionID, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrFunctionID, functionID),
		attribute.String(AttrExecutionStatus, status),
	)
	m.executionCounter.Add(ctx, 1, attrs)
	m.executionDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
}

// RecordSearch counts one semantic search against a collection.
func (m *RuntimeMetrics) RecordSearch(ctx context.Context, collection string, results int) {
	if m == nil {
		return
	}
	m.searchCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrCollection, collection),
			attribute.Int(AttrSearchResults, results),
		),
	)
}

// RecordIndexed counts one point upsert into a collection.
func (m *RuntimeMetrics) RecordIndexed(ctx context.Context, collection string) {
	if m == nil {
		return
	}
	m.indexCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(AttrCollection, collection)),
	)
}

// RecordShellCommand counts one shell command completion.
func (m *RuntimeMetrics) RecordShellCommand(ctx context.Context, exitCode int) {
	if m == nil {
		return
	}
	m.shellCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.Int(AttrShellExitCode, exitCode)),
	)
}
