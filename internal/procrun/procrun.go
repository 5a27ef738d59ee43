package procrun

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	// DefaultCaptureLimit bounds how much process output is retained.
	DefaultCaptureLimit = 128 * 1024

	// DefaultTermGrace is how long a process gets to exit after SIGTERM
	// before it is killed.
	DefaultTermGrace = 3 * time.Second
)

// Sentinel errors for the two watchdog timeouts. Use errors.Is to detect
// them through the *ProcessError wrapper.
var (
	ErrIdleTimeout  = errors.New("process idle timeout")
	ErrTotalTimeout = errors.New("process total timeout")
)

// Options controls timeouts and output capture for a single Run call.
type Options struct {
	// IdleTimeout terminates the process if it produces no output on either
	// stream for this long. Zero disables the idle watchdog.
	IdleTimeout time.Duration

	// TotalTimeout is a hard ceiling from process start regardless of
	// activity. Zero disables it.
	TotalTimeout time.Duration

	// TermGrace is the delay between SIGTERM and SIGKILL.
	TermGrace time.Duration

	// CaptureLimit bounds retained output per stream in bytes. When the
	// limit is exceeded only the most recent bytes are kept.
	CaptureLimit int
}

// ProcessError describes a failed external process invocation. It carries
// the truncated output context so callers can log something useful without
// re-running the command.
type ProcessError struct {
	Command  string
	ExitCode int
	Timeout  bool
	Output   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("command %s failed", e.Command)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else if e.ExitCode != 0 {
		msg += fmt.Sprintf(": exit status %d", e.ExitCode)
	}
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// slidingBuffer retains at most limit bytes of the most recently written
// data. Every write also bumps the shared activity clock.
type slidingBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
	touch func()
}

func (b *slidingBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.touch != nil {
		b.touch()
	}
	b.buf = append(b.buf, p...)
	if len(b.buf) > b.limit {
		// Copy so the oversized backing array can be collected.
		trimmed := make([]byte, b.limit)
		copy(trimmed, b.buf[len(b.buf)-b.limit:])
		b.buf = trimmed
	}
	return len(p), nil
}

func (b *slidingBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// terminator runs the SIGTERM-then-SIGKILL sequence exactly once per
// invocation and remembers why it fired.
type terminator struct {
	mu        sync.Mutex
	cmd       *exec.Cmd
	grace     time.Duration
	reason    error
	killTimer *time.Timer
	settled   bool
}

func (t *terminator) terminate(reason error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.settled || t.reason != nil {
		return
	}
	t.reason = reason
	if t.cmd.Process == nil {
		return
	}
	_ = t.cmd.Process.Signal(syscall.SIGTERM)
	t.killTimer = time.AfterFunc(t.grace, func() {
		t.mu.Lock()
		settled := t.settled
		t.mu.Unlock()
		if !settled {
			_ = t.cmd.Process.Kill()
		}
	})
}

// settle marks the process as exited and stops the pending kill timer.
// Returns the termination reason, if a watchdog fired.
func (t *terminator) settle() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settled = true
	if t.killTimer != nil {
		t.killTimer.Stop()
		t.killTimer = nil
	}
	return t.reason
}

// Run executes command with args and returns its captured standard output
// on exit code zero. Both output streams are retained up to
// Options.CaptureLimit bytes each, keeping the most recent data. The idle
// watchdog terminates processes that go silent, the total watchdog caps
// overall runtime, and every timer is stopped before Run returns.
func Run(command string, args []string, opts Options) (string, error) {
	if opts.CaptureLimit <= 0 {
		opts.CaptureLimit = DefaultCaptureLimit
	}
	if opts.TermGrace <= 0 {
		opts.TermGrace = DefaultTermGrace
	}

	var lastActivity atomic.Int64
	lastActivity.Store(time.Now().UnixNano())
	touch := func() { lastActivity.Store(time.Now().UnixNano()) }

	stdout := &slidingBuffer{limit: opts.CaptureLimit, touch: touch}
	stderr := &slidingBuffer{limit: opts.CaptureLimit, touch: touch}

	cmd := exec.Command(command, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return "", &ProcessError{Command: command, Err: err}
	}

	term := &terminator{cmd: cmd, grace: opts.TermGrace}
	done := make(chan struct{})

	if opts.IdleTimeout > 0 {
		interval := opts.IdleTimeout / 10
		if interval > time.Second {
			interval = time.Second
		}
		if interval < 250*time.Millisecond {
			interval = 250 * time.Millisecond
		}
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					idle := time.Since(time.Unix(0, lastActivity.Load()))
					if idle > opts.IdleTimeout {
						term.terminate(ErrIdleTimeout)
						return
					}
				case <-done:
					return
				}
			}
		}()
	}

	var totalTimer *time.Timer
	if opts.TotalTimeout > 0 {
		totalTimer = time.AfterFunc(opts.TotalTimeout, func() {
			term.terminate(ErrTotalTimeout)
		})
	}

	waitErr := cmd.Wait()
	close(done)
	if totalTimer != nil {
		totalTimer.Stop()
	}
	reason := term.settle()

	context := stderr.String()
	if context == "" {
		context = stdout.String()
	}
	if context == "" {
		context = "no command output"
	}

	if reason != nil {
		return "", &ProcessError{
			Command: command,
			Timeout: true,
			Output:  context,
			Err:     reason,
		}
	}
	if waitErr != nil {
		perr := &ProcessError{Command: command, Output: context, Err: waitErr}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			perr.ExitCode = exitErr.ExitCode()
			perr.Err = nil
		}
		return "", perr
	}
	return stdout.String(), nil
}
