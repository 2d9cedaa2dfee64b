// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package functions

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jllopis/ergon/pkg/errors"
	"github.com/jllopis/ergon/pkg/journal"
	"github.com/jllopis/ergon/pkg/telemetry"
)

// Defaults for the subprocess launcher.
const (
	DefaultInterpreter = "bun"
	DefaultRunner      = "index.ts"
)

// Engine runs functions as isolated subprocesses and owns the on-disk
// function layout: <dir>/src/<id>/ holds one metadata file and one entry
// code file per function.
type Engine struct {
	dir         string
	interpreter string
	runner      string
	journal     journal.Recorder
	metrics     *telemetry.RuntimeMetrics
	log         *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithJournal records executions through rec. A nil recorder disables
// journaling.
func WithJournal(rec journal.Recorder) EngineOption {
	return func(e *Engine) { e.journal = rec }
}

// WithEngineMetrics attaches runtime metrics.
func WithEngineMetrics(m *telemetry.RuntimeMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine over the functions root dir. Empty interpreter
// or runner fall back to the defaults.
func NewEngine(dir, interpreter, runner string, opts ...EngineOption) *Engine {
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	if runner == "" {
		runner = DefaultRunner
	}
	e := &Engine{
		dir:         dir,
		interpreter: interpreter,
		runner:      runner,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) srcDir() string {
	return filepath.Join(e.dir, "src")
}

// Failure is the normalized outcome of a failed execution: a short error
// code plus a human-readable message, as emitted by the function process
// itself or synthesized when it emitted nothing usable.
type Failure struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// Execute runs one function as a fresh subprocess and returns its decoded
// JSON result. The subprocess inherits the parent environment, runs with the
// functions root as working directory, and is aborted when ctx is canceled.
// Output is buffered in full; nothing streams.
func (e *Engine) Execute(ctx context.Context, id string, params map[string]any) (any, error) {
	fnDir := filepath.Join(e.srcDir(), id)
	if info, err := os.Stat(fnDir); err != nil || !info.IsDir() {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("function %s not found", id))
	}

	if params == nil {
		params = map[string]any{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidInput, "encode parameters", err)
	}

	cmd := exec.CommandContext(ctx, e.interpreter, e.runner, id, string(paramsJSON))
	cmd.Dir = e.dir
	cmd.Env = os.Environ()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.Debug("ergon.functions.execute.start", "function", id, "interpreter", e.interpreter)
	started := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(started)

	if runErr != nil {
		var exitErr *exec.ExitError
		if !stderrors.As(runErr, &exitErr) {
			execErr := errors.Wrap(errors.CodeExecution,
				fmt.Sprintf("start function %s", id), runErr).
				WithContext("function", id)
			e.finish(ctx, id, started, elapsed, errors.CodeExecution)
			return nil, execErr
		}

		failure := classifyFailure(stdout.String(), stderr.String())
		execErr := errors.Wrap(errors.CodeExecution,
			fmt.Sprintf("function %s failed", id), failure).
			WithContext("function", id).
			WithContext("exit_code", exitErr.ExitCode())
		e.finish(ctx, id, started, elapsed, errors.CodeExecution)
		return nil, execErr
	}

	result, err := decodeResult(id, stdout.String())
	if err != nil {
		e.finish(ctx, id, started, elapsed, errors.CodeParse)
		return nil, err
	}
	e.finish(ctx, id, started, elapsed, "")
	return result, nil
}

// finish records the outcome in the journal and metrics.
func (e *Engine) finish(ctx context.Context, id string, started time.Time, elapsed time.Duration, code errors.ErrorCode) {
	status := journal.StatusSuccess
	if code != "" {
		status = journal.StatusError
	}
	e.metrics.RecordExecution(ctx, id, status, elapsed)
	e.log.Info("ergon.functions.executed",
		"function", id, "status", status, "duration_ms", elapsed.Milliseconds())

	if e.journal == nil {
		return
	}
	rec := journal.Record{
		Kind:       journal.KindFunction,
		Subject:    id,
		Status:     status,
		ErrorCode:  string(code),
		DurationMS: elapsed.Milliseconds(),
		StartedAt:  started,
		FinishedAt: started.Add(elapsed),
	}
	if err := e.journal.Record(ctx, rec); err != nil {
		e.log.Warn("ergon.functions.journal_failed", "function", id, "error", err)
	}
}

// classifyFailure normalizes a non-zero exit into a Failure: the trimmed
// stdout is tried first as an {error, message} object, then stderr; when
// neither parses the failure is UnknownError carrying whichever stream had
// content. The message is never left empty.
func classifyFailure(stdout, stderr string) Failure {
	stdout = strings.TrimSpace(stdout)
	stderr = strings.TrimSpace(stderr)

	for _, buf := range []string{stdout, stderr} {
		if buf == "" {
			continue
		}
		var f Failure
		if err := json.Unmarshal([]byte(buf), &f); err == nil && f.Code != "" {
			if f.Message == "" {
				f.Message = f.Code
			}
			return f
		}
	}

	f := Failure{Code: "UnknownError", Message: stderr}
	if f.Message == "" {
		f.Message = stdout
	}
	if f.Message == "" {
		f.Message = f.Code
	}
	return f
}

// decodeResult parses the stdout of a zero-exit run: the whole trimmed
// buffer when it is JSON, otherwise the first balanced JSON region found by
// extractJSON (functions may log around their result).
func decodeResult(id, stdout string) (any, error) {
	out := strings.TrimSpace(stdout)
	if out == "" {
		return nil, nil
	}

	var result any
	if err := json.Unmarshal([]byte(out), &result); err == nil {
		return result, nil
	}

	region, ok := extractJSON(out)
	if !ok {
		return nil, errors.New(errors.CodeParse,
			fmt.Sprintf("no JSON value in function %s output", id)).
			WithContext("function", id).
			WithContext("output_len", len(out)).
			WithContext("output_head", truncate(out, 48))
	}
	if err := json.Unmarshal([]byte(region), &result); err != nil {
		return nil, errors.Wrap(errors.CodeParse,
			fmt.Sprintf("decode function %s output", id), err).
			WithContext("function", id)
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
