package protocol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

// ErrCrash is returned by RecvUntil when the child exits, or its stdout
// reaches EOF, before a line satisfying the predicate arrives.
var ErrCrash = fmt.Errorf("protocol: engine crashed or closed its output")

// Listener observes a line sent to, or received from, an engine. A send
// listener runs on the goroutine that calls Send; a receive listener runs on
// the process's own reader goroutine, before the line is handed to RecvUntil,
// so a receive listener that blocks stalls that engine's output. Listeners
// must be safe to call
// concurrently with listeners for other engines (they must not, however,
// be called concurrently with themselves: all I/O on one EngineProcess is
// serialised, by construction).
type Listener func(line string)

// Option configures an EngineProcess at construction time.
type Option func(*EngineProcess)

// WithSendListener registers a callback invoked with every line written to
// the engine's stdin, for debug tracing.
func WithSendListener(fn Listener) Option {
	return func(p *EngineProcess) { p.onSend = fn }
}

// WithRecvListener registers a callback invoked with every line read from
// the engine's stdout, for debug tracing.
func WithRecvListener(fn Listener) Option {
	return func(p *EngineProcess) { p.onRecv = fn }
}

// EngineProcess owns one child subprocess and exchanges UTF-8, newline
// terminated lines with it. All I/O on a process is single-consumer: send
// and recv calls must not be issued concurrently from more than one
// goroutine (EngineSession enforces this by construction — see §4.1).
type EngineProcess struct {
	cmd      *exec.Cmd
	stdinRaw io.WriteCloser
	stdin    *bufio.Writer

	lines chan string // lines read from stdout, in order
	done  chan error  // closed when the reader goroutine exits; carries the cause

	onSend, onRecv Listener

	mu     sync.Mutex // serialises writes to stdin
	alive  atomic.Bool
	reaped atomic.Bool
}

// Spawn starts path as a child process with the given arguments, piping its
// stdin and stdout. The child's stderr is left connected to this process's
// stderr so crashes are visible in logs without corrupting the protocol
// stream.
func Spawn(ctx context.Context, path string, args []string, opts ...Option) (*EngineProcess, error) {
	cmd := exec.CommandContext(ctx, path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("protocol: stdin pipe for %v: %w", path, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("protocol: stdout pipe for %v: %w", path, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("protocol: launch %v: %w", path, err)
	}

	p := newProcess(cmd, stdin, stdout, opts...)
	logw.Infof(ctx, "Spawned engine process %v (pid=%v)", path, cmd.Process.Pid)
	return p, nil
}

// newProcess wires an already-started (or test double) command's pipes. It
// is split out from Spawn so tests can construct an EngineProcess over an
// in-memory pipe instead of a real subprocess.
func newProcess(cmd *exec.Cmd, stdin io.WriteCloser, stdout io.Reader, opts ...Option) *EngineProcess {
	p := &EngineProcess{
		cmd:      cmd,
		stdinRaw: stdin,
		stdin:    bufio.NewWriter(stdin),
		lines:    make(chan string, 64),
		done:     make(chan error, 1),
	}
	for _, fn := range opts {
		fn(p)
	}
	p.alive.Store(true)

	go p.readLines(stdout)
	return p
}

func (p *EngineProcess) readLines(stdout io.Reader) {
	defer close(p.lines)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if p.onRecv != nil {
			p.onRecv(line)
		}
		p.lines <- line
	}

	p.alive.Store(false)
	if err := scanner.Err(); err != nil {
		p.done <- err
	} else {
		p.done <- io.EOF
	}
	close(p.done)
}

// Send appends a newline to line and writes it to the engine's stdin.
func (p *EngineProcess) Send(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.stdin.WriteString(line); err != nil {
		return fmt.Errorf("protocol: write: %w", err)
	}
	if err := p.stdin.WriteByte('\n'); err != nil {
		return fmt.Errorf("protocol: write: %w", err)
	}
	if err := p.stdin.Flush(); err != nil {
		return fmt.Errorf("protocol: flush: %w", err)
	}

	if p.onSend != nil {
		p.onSend(line)
	}
	return nil
}

// RecvUntil reads lines one at a time until predicate returns true for one
// of them, and returns that line. It fails with ErrCrash if the child's
// output ends (EOF or read error) before a matching line arrives.
func (p *EngineProcess) RecvUntil(predicate func(string) bool) (string, error) {
	for line := range p.lines {
		if predicate(line) {
			return line, nil
		}
		// Unrecognised or intermediate lines are ignored (§6).
	}
	return "", ErrCrash
}

// IsAlive reports whether the child is believed to still be running. It is
// a best-effort snapshot: the child may exit between the check and the next
// operation.
func (p *EngineProcess) IsAlive() bool {
	return p.alive.Load()
}

// Close closes stdin (signalling EOF to a well-behaved child) and reaps the
// process. It is idempotent and safe to call after the child has already
// exited on its own.
func (p *EngineProcess) Close() error {
	if !p.reaped.CAS(false, true) {
		return nil
	}

	p.mu.Lock()
	_ = p.stdin.Flush()
	_ = p.stdinRaw.Close()
	p.mu.Unlock()

	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Wait()
	}
	return nil
}
