package protocol

import (
	"bufio"
	"io"
	"testing"
)

// NewFakeProcess wires an EngineProcess to an in-process fake engine driven
// by respond, which is given each line sent to it and returns the lines (if
// any) to write back. This exercises EngineProcess/EngineSession, and
// anything built on top of them, without spawning a real subprocess.
func NewFakeProcess(tb testing.TB, respond func(line string) []string) *EngineProcess {
	tb.Helper()

	stdinRead, stdinWrite := io.Pipe()
	stdoutRead, stdoutWrite := io.Pipe()

	go func() {
		scanner := bufio.NewScanner(stdinRead)
		for scanner.Scan() {
			for _, out := range respond(scanner.Text()) {
				_, _ = io.WriteString(stdoutWrite, out+"\n")
			}
		}
		_ = stdoutWrite.Close()
	}()

	p := newProcess(nil, stdinWrite, stdoutRead)
	tb.Cleanup(func() { _ = p.Close() })
	return p
}

// NewCrashedProcess returns an EngineProcess whose stdout is already at EOF,
// simulating a child that exited (or crashed) before responding.
func NewCrashedProcess(tb testing.TB) *EngineProcess {
	tb.Helper()

	stdinRead, stdinWrite := io.Pipe()
	_ = stdinRead.Close()
	stdoutRead, stdoutWrite := io.Pipe()
	_ = stdoutWrite.Close()

	p := newProcess(nil, stdinWrite, stdoutRead)
	tb.Cleanup(func() { _ = p.Close() })
	return p
}

// NewFakeSession wraps a fake process in an EngineSession for the given
// dialect, for tests that exercise code built on top of EngineSession rather
// than EngineProcess directly.
func NewFakeSession(tb testing.TB, dialect Dialect, respond func(line string) []string) *EngineSession {
	tb.Helper()

	s, err := NewSession(0, dialect, NewFakeProcess(tb, respond))
	if err != nil {
		tb.Fatalf("protocol: NewFakeSession: %v", err)
	}
	return s
}
