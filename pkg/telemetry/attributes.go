// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration for the function
// runtime: SDK setup, trace-aware logging, and runtime metrics.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for Ergon runtime telemetry.
// These follow OpenTelemetry naming conventions where applicable.
const (
	// Function attributes
	AttrFunctionID         = "ergon.function.id"
	AttrFunctionName       = "ergon.function.name"
	AttrExecutionStatus    = "ergon.execution.status" // "success", "error"
	AttrExecutionExitCode  = "ergon.execution.exit_code"
	AttrExecutionDuration  = "ergon.execution.duration_ms"
	AttrExecutionErrorCode = "ergon.execution.error_code"

	// Semantic index attributes
	AttrCollection    = "ergon.collection"
	AttrSearchQuery   = "ergon.search.query"
	AttrSearchLimit   = "ergon.search.limit"
	AttrSearchResults = "ergon.search.results"
	AttrPointID       = "ergon.point.id"

	// Shell attributes
	AttrShellCommand  = "ergon.shell.command"
	AttrShellExitCode = "ergon.shell.exit_code"

	// Provider attributes (extending standard gen_ai conventions)
	AttrLLMProvider     = "gen_ai.system"
	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"
	AttrVectorProvider  = "ergon.vector.provider"
)

// ExecutionAttributes returns common attributes for function execution spans.
func ExecutionAttributes(functionID, status string, exitCode int, durationMs float64) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrFunctionID, functionID),
		attribute.String(AttrExecutionStatus, status),
	}
	if exitCode != 0 {
		attrs = append(attrs, attribute.Int(AttrExecutionExitCode, exitCode))
	}
	if durationMs > 0 {
		attrs = append(attrs, attribute.Float64(AttrExecutionDuration, durationMs))
	}
	return attrs
}

// SearchAttributes returns attributes for semantic search spans. Queries are
// truncated so spans stay bounded.
func SearchAttributes(collection, query string, limit, results int) []attribute.KeyValue {
	if len(query) > 200 {
		query = query[:200] + "..."
	}
	attrs := []attribute.KeyValue{
		attribute.String(AttrCollection, collection),
		attribute.Int(AttrSearchLimit, limit),
	}
	if query != "" {
		attrs = append(attrs, attribute.String(AttrSearchQuery, query))
	}
	if results >= 0 {
		attrs = append(attrs, attribute.Int(AttrSearchResults, results))
	}
	return attrs
}

// LLMAttributes returns attributes for provider call spans.
func LLMAttributes(provider, model string, inputTokens, outputTokens int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrLLMProvider, provider),
	}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrLLMModel, model))
	}
	if inputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensInput, inputTokens))
	}
	if outputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensOutput, outputTokens))
	}
	return attrs
}
