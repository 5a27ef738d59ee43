package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestEnqueueAndRun(t *testing.T) {
	s := New(DefaultConfig())
	s.Start()
	defer s.Shutdown(context.Background())

	done := make(chan string, 3)
	for _, id := range []string{"a", "b", "c"} {
		id := id
		err := s.Enqueue(Job{ID: id, Label: id + ".mp4", Kind: "normalize", Run: func(ctx context.Context) error {
			done <- id
			return nil
		}})
		require.NoError(t, err)
	}

	var order []string
	for i := 0; i < 3; i++ {
		select {
		case id := <-done:
			order = append(order, id)
		case <-time.After(2 * time.Second):
			t.Fatal("Jobs did not run")
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, order, "jobs should run in admission order")
}

func TestEnqueueBeforeStart(t *testing.T) {
	s := New(DefaultConfig())

	ran := make(chan struct{})
	require.NoError(t, s.Enqueue(Job{ID: "x", Run: func(ctx context.Context) error {
		close(ran)
		return nil
	}}))

	select {
	case <-ran:
		t.Fatal("Job ran before Start")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, s.Snapshot().Pending)

	s.Start()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("Job did not run after Start")
	}
	s.Shutdown(context.Background())
}

func TestAdmissionControl(t *testing.T) {
	s := New(Config{MaxPending: 2, Concurrency: 1})
	s.Start()

	release := make(chan struct{})
	started := make(chan struct{})
	blocker := func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}

	require.NoError(t, s.Enqueue(Job{ID: "running", Run: blocker}))
	<-started

	// Backlog capacity is 2; the running job does not count.
	require.NoError(t, s.Enqueue(Job{ID: "p1", Run: func(ctx context.Context) error { return nil }}))
	require.NoError(t, s.Enqueue(Job{ID: "p2", Run: func(ctx context.Context) error { return nil }}))

	err := s.Enqueue(Job{ID: "p3", Run: func(ctx context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestConcurrencyBound(t *testing.T) {
	s := New(Config{MaxPending: 25, Concurrency: 2})
	s.Start()

	var current, peak int64
	var mu sync.Mutex
	job := func(ctx context.Context) error {
		c := atomic.AddInt64(&current, 1)
		mu.Lock()
		if c > peak {
			peak = c
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&current, -1)
		return nil
	}

	for i := 0; i < 6; i++ {
		require.NoError(t, s.Enqueue(Job{ID: "j", Run: job}))
	}
	require.NoError(t, s.Shutdown(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(2), "no more than Concurrency jobs may overlap")
	assert.Greater(t, peak, int64(0))
}

func TestCycleTracking(t *testing.T) {
	s := New(Config{MaxPending: 25, Concurrency: 1})

	failErr := errors.New("encode failed")
	require.NoError(t, s.Enqueue(Job{ID: "a", Label: "a.mp4", Run: func(ctx context.Context) error { return nil }}))
	require.NoError(t, s.Enqueue(Job{ID: "b", Label: "b.mp4", Run: func(ctx context.Context) error { return failErr }}))
	require.NoError(t, s.Enqueue(Job{ID: "c", Label: "c.mp4", Run: func(ctx context.Context) error { return nil }}))

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.TotalInCycle)
	assert.Equal(t, 0, snap.CompletedInCycle)
	assert.Equal(t, float64(0), snap.Percent)
	assert.False(t, snap.CycleStartedAt.IsZero())

	s.Start()
	waitFor(t, 2*time.Second, func() bool {
		snap := s.Snapshot()
		return snap.Pending == 0 && snap.Active == 0
	})

	snap = s.Snapshot()
	assert.Equal(t, 3, snap.TotalInCycle)
	assert.Equal(t, 2, snap.CompletedInCycle)
	assert.Equal(t, 1, snap.FailedInCycle)
	assert.Equal(t, float64(100), snap.Percent)
	assert.Empty(t, snap.CurrentLabel, "label clears when the queue drains")

	// New work after a drain starts a fresh cycle.
	require.NoError(t, s.Enqueue(Job{ID: "d", Label: "d.mp4", Run: func(ctx context.Context) error { return nil }}))
	snap = s.Snapshot()
	assert.Equal(t, 1, snap.TotalInCycle)
	assert.Equal(t, 0, snap.FailedInCycle)

	require.NoError(t, s.Shutdown(context.Background()))
}

func TestCurrentLabelWhileRunning(t *testing.T) {
	s := New(DefaultConfig())
	s.Start()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.Enqueue(Job{ID: "x", Label: "movie.mp4", Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started

	assert.Equal(t, "movie.mp4", s.Snapshot().CurrentLabel)
	close(release)
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestShutdownWaitsForWork(t *testing.T) {
	s := New(DefaultConfig())
	s.Start()

	var finished atomic.Bool
	started := make(chan struct{})
	require.NoError(t, s.Enqueue(Job{ID: "slow", Run: func(ctx context.Context) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	}}))
	<-started

	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, finished.Load(), "Shutdown must wait for in-flight work")

	err := s.Enqueue(Job{ID: "late", Run: func(ctx context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestShutdownDeadlineCancelsJobs(t *testing.T) {
	s := New(DefaultConfig())
	s.Start()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	require.NoError(t, s.Enqueue(Job{ID: "stuck", Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("Job context was not cancelled on forced shutdown")
	}
}
