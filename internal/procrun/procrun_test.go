package procrun

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesStdout(t *testing.T) {
	out, err := Run("sh", []string{"-c", "echo hello"}, Options{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("Expected output 'hello', got %q", out)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	_, err := Run("sh", []string{"-c", "echo oops >&2; exit 3"}, Options{})
	if err == nil {
		t.Fatal("Expected error for non-zero exit")
	}

	var perr *ProcessError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ProcessError, got %T", err)
	}
	if perr.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", perr.ExitCode)
	}
	if !strings.Contains(perr.Output, "oops") {
		t.Errorf("Expected stderr context in error, got %q", perr.Output)
	}
	if perr.Timeout {
		t.Error("Expected Timeout=false for exit failure")
	}
}

func TestRunSpawnFailure(t *testing.T) {
	_, err := Run("definitely-not-a-real-binary", nil, Options{})
	if err == nil {
		t.Fatal("Expected error for missing binary")
	}
	var perr *ProcessError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ProcessError, got %T", err)
	}
}

func TestRunIdleTimeout(t *testing.T) {
	start := time.Now()
	_, err := Run("sh", []string{"-c", "sleep 30"}, Options{
		IdleTimeout: 300 * time.Millisecond,
		TermGrace:   500 * time.Millisecond,
	})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Expected idle timeout error")
	}
	if !errors.Is(err, ErrIdleTimeout) {
		t.Errorf("Expected ErrIdleTimeout, got %v", err)
	}

	var perr *ProcessError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ProcessError, got %T", err)
	}
	if !perr.Timeout {
		t.Error("Expected Timeout=true")
	}
	if elapsed > 5*time.Second {
		t.Errorf("Idle timeout took too long to fire: %v", elapsed)
	}
}

func TestRunTotalTimeoutDespiteActivity(t *testing.T) {
	// Process keeps producing output, so only the total watchdog can stop it.
	_, err := Run("sh", []string{"-c", "while true; do echo tick; sleep 0.1; done"}, Options{
		IdleTimeout:  10 * time.Second,
		TotalTimeout: 500 * time.Millisecond,
		TermGrace:    500 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("Expected total timeout error")
	}
	if !errors.Is(err, ErrTotalTimeout) {
		t.Errorf("Expected ErrTotalTimeout, got %v", err)
	}
}

func TestRunZeroTotalTimeoutDisabled(t *testing.T) {
	out, err := Run("sh", []string{"-c", "sleep 0.2; echo done"}, Options{
		TotalTimeout: 0,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if strings.TrimSpace(out) != "done" {
		t.Errorf("Expected 'done', got %q", out)
	}
}

func TestRunCaptureLimit(t *testing.T) {
	limit := 1024
	out, err := Run("sh", []string{"-c", "yes 0123456789 | head -c 100000"}, Options{
		CaptureLimit: limit,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(out) > limit {
		t.Errorf("Captured %d bytes, limit is %d", len(out), limit)
	}
	if len(out) != limit {
		t.Errorf("Expected exactly %d retained bytes for noisy process, got %d", limit, len(out))
	}
}

func TestSlidingBufferKeepsMostRecent(t *testing.T) {
	buf := &slidingBuffer{limit: 8}
	for _, chunk := range []string{"aaaa", "bbbb", "cccc"} {
		if _, err := buf.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write error: %v", err)
		}
		if got := len(buf.String()); got > 8 {
			t.Fatalf("Buffer exceeded limit: %d bytes", got)
		}
	}
	if buf.String() != "bbbbcccc" {
		t.Errorf("Expected most recent bytes retained, got %q", buf.String())
	}
}
