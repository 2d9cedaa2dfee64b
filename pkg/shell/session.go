// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// maxLineBytes bounds a single output line fed through the scanner.
const maxLineBytes = 1024 * 1024

// session is one live shell process. stdout and stderr are merged into a
// single pipe and pumped line-by-line into lines, which closes when the
// process exits.
type session struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
}

// newSession spawns the shell in its own process group, so an interrupt can
// kill the shell and everything it started.
func newSession(shellPath, workdir string) (*session, error) {
	cmd := exec.Command(shellPath)
	cmd.Dir = workdir
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open shell stdin: %w", err)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("open shell output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, fmt.Errorf("start shell %s: %w", shellPath, err)
	}
	// The child holds its own copy of the write end; closing ours makes the
	// read end see EOF when the shell exits.
	pw.Close()

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		defer pr.Close()
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	go func() { _ = cmd.Wait() }()

	return &session{cmd: cmd, stdin: stdin, lines: lines}, nil
}

// send writes the command followed by the sentinel echo in one write. The
// sentinel line carries the command's exit status.
func (s *session) send(command, marker string) error {
	payload := command + "\necho \"" + marker + " $?\"\n"
	if _, err := io.WriteString(s.stdin, payload); err != nil {
		return fmt.Errorf("write to shell: %w", err)
	}
	return nil
}

// kill terminates the whole process group.
func (s *session) kill() {
	if s.cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-s.cmd.Process.Pid, syscall.SIGKILL)
	_ = s.stdin.Close()
}

// splitSentinel looks for the marker in line. Commands that end their
// output without a newline leave the sentinel glued to the last output
// fragment, so the marker is matched anywhere in the line and whatever
// precedes it still belongs to the output.
func splitSentinel(line, marker string) (prefix string, exitCode int, ok bool) {
	idx := strings.Index(line, marker)
	if idx < 0 {
		return "", 0, false
	}
	code, err := strconv.Atoi(strings.TrimSpace(line[idx+len(marker):]))
	if err != nil {
		return "", 0, false
	}
	return line[:idx], code, true
}
