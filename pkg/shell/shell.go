// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package shell manages one persistent interactive shell session with
// sentinel-based command completion: each command is followed by an echo of
// a unique marker carrying $?, and the marker's appearance on the merged
// output stream is the completion signal. There is no fixed delay and no
// output truncation.
package shell

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jllopis/ergon/pkg/errors"
	"github.com/jllopis/ergon/pkg/journal"
	"github.com/jllopis/ergon/pkg/telemetry"
)

// Entry is one completed command in the session history.
type Entry struct {
	Command  string `json:"command"`
	Output   string `json:"output"`
	ExitCode int    `json:"exit_code"`
}

// Manager owns the session. One command runs at a time: Execute fails fast
// with a shell-busy error while another command is in flight.
type Manager struct {
	mu      sync.Mutex
	shell   string
	workdir string
	journal journal.Recorder
	metrics *telemetry.RuntimeMetrics
	log     *slog.Logger

	session *session
	busy    bool
	current string
	history []Entry
}

// Option configures a Manager.
type Option func(*Manager)

// WithJournal records commands through rec. A nil recorder disables
// journaling.
func WithJournal(rec journal.Recorder) Option {
	return func(m *Manager) { m.journal = rec }
}

// WithMetrics attaches runtime metrics.
func WithMetrics(metrics *telemetry.RuntimeMetrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a manager. The session itself is spawned lazily by the
// first Execute. An empty shellPath means /bin/bash; an empty workdir
// inherits the process working directory.
func NewManager(shellPath, workdir string, opts ...Option) *Manager {
	if shellPath == "" {
		shellPath = "/bin/bash"
	}
	m := &Manager{
		shell:   shellPath,
		workdir: workdir,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute runs one command in the session and returns its output and exit
// code once the sentinel arrives. A second call while a command is in
// flight fails immediately with a shell-busy error naming that command.
func (m *Manager) Execute(ctx context.Context, command string) (Entry, error) {
	m.mu.Lock()
	if m.busy {
		inFlight := m.current
		m.mu.Unlock()
		return Entry{}, errors.New(errors.CodeShellBusy,
			fmt.Sprintf("shell is busy running %q", inFlight))
	}
	if m.session == nil {
		sess, err := newSession(m.shell, m.workdir)
		if err != nil {
			m.mu.Unlock()
			return Entry{}, errors.Wrap(errors.CodeConfiguration, "spawn shell session", err)
		}
		m.session = sess
		m.log.Info("ergon.shell.spawned", "shell", m.shell)
	}
	sess := m.session
	m.busy = true
	m.current = command
	m.mu.Unlock()

	started := time.Now()
	marker := "__ERGON_DONE_" + uuid.NewString() + "__"
	if err := sess.send(command, marker); err != nil {
		m.abort(ctx, sess, command, started, err)
		return Entry{}, errors.Wrap(errors.CodeExecution, "send command to shell", err)
	}

	var out strings.Builder
	for {
		select {
		case <-ctx.Done():
			m.abort(ctx, sess, command, started, ctx.Err())
			return Entry{}, errors.Wrap(errors.CodeExecution,
				fmt.Sprintf("command %q aborted", command), ctx.Err())
		case line, ok := <-sess.lines:
			if !ok {
				err := fmt.Errorf("shell session ended while running %q", command)
				m.abort(ctx, sess, command, started, err)
				return Entry{}, errors.Wrap(errors.CodeExecution, "shell session ended", err)
			}
			prefix, exitCode, done := splitSentinel(line, marker)
			if !done {
				out.WriteString(line)
				out.WriteByte('\n')
				continue
			}
			out.WriteString(prefix)
			entry := Entry{Command: command, Output: out.String(), ExitCode: exitCode}
			m.complete(ctx, entry, started)
			return entry, nil
		}
	}
}

// History returns the ordered log of completed commands.
func (m *Manager) History() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.history))
	copy(out, m.history)
	return out
}

// Interrupt kills the session process group to abort a stuck command and
// force-resets the busy lock. The next Execute spawns a fresh session.
// Interrupting an idle manager is a no-op.
func (m *Manager) Interrupt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return
	}
	m.session.kill()
	m.session = nil
	m.busy = false
	m.current = ""
	m.log.Info("ergon.shell.interrupted")
}

// Close terminates the session, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.kill()
		m.session = nil
	}
	m.busy = false
	m.current = ""
}

// complete appends the entry to history and releases the busy lock.
func (m *Manager) complete(ctx context.Context, entry Entry, started time.Time) {
	m.mu.Lock()
	m.history = append(m.history, entry)
	m.busy = false
	m.current = ""
	m.mu.Unlock()

	m.metrics.RecordShellCommand(ctx, entry.ExitCode)
	m.log.Info("ergon.shell.executed", "exit_code", entry.ExitCode,
		"duration_ms", time.Since(started).Milliseconds())
	m.record(ctx, entry.Command, entry.ExitCode, started)
}

// abort tears the session down after a failed or canceled command. The
// command does not enter history.
func (m *Manager) abort(ctx context.Context, sess *session, command string, started time.Time, cause error) {
	sess.kill()
	m.mu.Lock()
	if m.session == sess {
		m.session = nil
	}
	m.busy = false
	m.current = ""
	m.mu.Unlock()

	m.log.Warn("ergon.shell.aborted", "error", cause)
	// The caller's context may already be canceled; the audit write still
	// has to land.
	m.record(context.WithoutCancel(ctx), command, -1, started)
}

func (m *Manager) record(ctx context.Context, command string, exitCode int, started time.Time) {
	if m.journal == nil {
		return
	}
	status := journal.StatusSuccess
	errCode := ""
	if exitCode != 0 {
		status = journal.StatusError
		errCode = string(errors.CodeExecution)
	}
	rec := journal.Record{
		Kind:       journal.KindShell,
		Subject:    command,
		Status:     status,
		ErrorCode:  errCode,
		DurationMS: time.Since(started).Milliseconds(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := m.journal.Record(ctx, rec); err != nil {
		m.log.Warn("ergon.shell.journal_failed", "error", err)
	}
}
