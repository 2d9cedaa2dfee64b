// SPDX-License-Identifier: Apache-2.0
// Ergon Runtime Observability Dashboards
// This file documents dashboard templates for OpenTelemetry OTEL UI or Grafana.
//
// DASHBOARD: Function Executions
//   Shows execution volume, failure trends, and latency per function.
//
//   Queries:
//   - ergon.executions.total{ergon.function.id, ergon.execution.status} (rate 5m)
//     Metric: Executions by function id and status
//     Display: Line chart with legend (success vs error)
//     Alert Threshold: error share > 20% over 5m for any function id
//
//   - ergon.executions.duration_ms{ergon.function.id} (p50/p95/p99)
//     Metric: Execution wall time histogram
//     Display: Heatmap or multi-line percentile chart
//     Insight: Functions whose p95 grows after a create or reindex
//
// DASHBOARD: Semantic Index
//   Shows search traffic and index churn per collection.
//
//   Queries:
//   - ergon.searches.total{ergon.collection} (rate 5m)
//     Metric: Semantic searches by collection
//     Display: Stacked area (function-metadata vs memories)
//
//   - ergon.searches.total{ergon.search.results="0"} (rate 15m)
//     Metric: Zero-result searches
//     Display: Single stat
//     Insight: A climbing zero-result rate usually means a stale index;
//     check the watcher and the last full reindex
//
//   - ergon.indexed.total{ergon.collection} (rate 1h)
//     Metric: Points indexed per collection
//     Display: Bar chart
//     Correlation: Spikes should line up with function churn or memory writes
//
// DASHBOARD: Shell Session
//   Tracks the persistent shell session workload.
//
//   Queries:
//   - ergon.shell.commands.total{ergon.shell.exit_code} (rate 5m)
//     Metric: Commands by exit code
//     Display: Line chart, non-zero codes highlighted
//     Alert Threshold: exit_code=-1 (aborted) > 1/min means commands keep
//     getting stuck and interrupted
//
// ALERT RULES (Prometheus/AlertManager format):
//
// Alert 1: High Function Failure Rate
//   Name: ErgonFunctionFailures
//   Condition: rate(ergon.executions.total{ergon.execution.status="error"}[5m])
//              / rate(ergon.executions.total[5m]) > 0.2
//   Duration: 2m
//   Severity: warning
//
// Alert 2: Slow Function Executions
//   Name: ErgonSlowExecutions
//   Condition: histogram_quantile(0.95, ergon.executions.duration_ms) > 30000
//   Duration: 5m
//   Severity: warning
//
// Alert 3: Shell Aborts
//   Name: ErgonShellAborts
//   Condition: rate(ergon.shell.commands.total{ergon.shell.exit_code="-1"}[5m]) > 0.02
//   Duration: 5m
//   Severity: info
//
// Span and metric attributes used above (see pkg/telemetry/attributes.go):
//   ergon.function.id, ergon.execution.status, ergon.execution.exit_code,
//   ergon.collection, ergon.search.results, ergon.shell.exit_code,
//   gen_ai.system, gen_ai.request.model
//
// The journal (ergon journal list) is the ground truth for per-call audit;
// these dashboards aggregate the same events at the metric level.
package main

// This file is documentation only and is not compiled.
// See pkg/telemetry/metrics.go for the instrument definitions.
