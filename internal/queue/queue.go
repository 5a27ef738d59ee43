package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"signage/internal/logging"
	"signage/internal/metrics"
)

const (
	// DefaultMaxPending caps the number of jobs waiting for a worker.
	// Uploads beyond this point are rejected rather than queued without
	// bound.
	DefaultMaxPending = 25

	// DefaultConcurrency is the number of jobs encoded at once. Encodes
	// saturate their cores, so running them serially keeps the host
	// responsive.
	DefaultConcurrency = 1
)

var (
	// ErrQueueFull is returned by Enqueue when the pending backlog is at
	// capacity.
	ErrQueueFull = errors.New("transcode queue is full")

	// ErrShutdown is returned by Enqueue after Shutdown has begun.
	ErrShutdown = errors.New("transcode queue is shutting down")
)

// Job is a unit of transcode work.
type Job struct {
	// ID identifies the media item the job belongs to.
	ID string
	// Label is a human-readable description surfaced in progress reports.
	Label string
	// Kind classifies the job for metrics ("normalize", "package",
	// "backfill").
	Kind string
	// Run performs the work. The context is cancelled on forced shutdown.
	Run func(ctx context.Context) error
}

// Config controls scheduler capacity.
type Config struct {
	MaxPending  int
	Concurrency int
}

// DefaultConfig returns the production scheduler configuration.
func DefaultConfig() Config {
	return Config{MaxPending: DefaultMaxPending, Concurrency: DefaultConcurrency}
}

// Snapshot reports queue state and progress through the current work
// cycle. A cycle starts when a job is admitted to an idle queue and ends
// when the queue drains.
type Snapshot struct {
	Pending          int       `json:"pending"`
	Active           int       `json:"active"`
	TotalInCycle     int       `json:"totalInCycle"`
	CompletedInCycle int       `json:"completedInCycle"`
	FailedInCycle    int       `json:"failedInCycle"`
	Percent          float64   `json:"percent"`
	CurrentLabel     string    `json:"currentLabel,omitempty"`
	CycleStartedAt   time.Time `json:"cycleStartedAt,omitzero"`
}

// Scheduler runs transcode jobs with a bounded backlog and bounded
// concurrency. Jobs are dispatched in admission order.
type Scheduler struct {
	config Config

	mu       sync.Mutex
	pending  []*Job
	active   int
	started  bool
	stopping bool
	idle     chan struct{} // closed when active==0 && pending==0 during shutdown

	// Cycle progress. Reset when work arrives at an idle queue.
	cycleTotal     int
	cycleCompleted int
	cycleFailed    int
	currentLabel   string
	cycleStartedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler. Zero or negative config fields fall back to
// defaults.
func New(config Config) *Scheduler {
	if config.MaxPending <= 0 {
		config.MaxPending = DefaultMaxPending
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins dispatching. Jobs enqueued before Start stay pending, which
// lets startup reconciliation queue work before workers spin up.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopping {
		return
	}
	s.started = true
	logging.Info("Transcode scheduler started (concurrency=%d, max pending=%d)", s.config.Concurrency, s.config.MaxPending)
	s.dispatchLocked()
}

// Enqueue admits a job to the backlog. It returns ErrQueueFull when the
// backlog is at capacity and ErrShutdown once Shutdown has begun.
func (s *Scheduler) Enqueue(job Job) error {
	s.mu.Lock()

	if s.stopping {
		s.mu.Unlock()
		return ErrShutdown
	}
	if len(s.pending) >= s.config.MaxPending {
		s.mu.Unlock()
		metrics.QueueJobsTotal.WithLabelValues("rejected").Inc()
		logging.Warn("Transcode queue full (%d pending), rejecting %s", s.config.MaxPending, job.Label)
		return ErrQueueFull
	}

	// A job arriving at an idle, fully-drained queue starts a new cycle.
	if s.active == 0 && len(s.pending) == 0 {
		s.cycleTotal = 0
		s.cycleCompleted = 0
		s.cycleFailed = 0
		s.cycleStartedAt = time.Now()
	}
	s.cycleTotal++

	s.pending = append(s.pending, &job)
	metrics.QueuePendingJobs.Set(float64(len(s.pending)))
	logging.Debug("Enqueued transcode job %s (%s), %d pending", job.ID, job.Label, len(s.pending))

	s.dispatchLocked()
	s.mu.Unlock()
	return nil
}

// dispatchLocked starts pending jobs while worker slots are free.
// Callers must hold s.mu.
func (s *Scheduler) dispatchLocked() {
	for s.started && s.active < s.config.Concurrency && len(s.pending) > 0 {
		job := s.pending[0]
		s.pending = s.pending[1:]
		s.active++
		s.currentLabel = job.Label
		metrics.QueuePendingJobs.Set(float64(len(s.pending)))
		metrics.QueueActiveJobs.Set(float64(s.active))
		go s.runJob(job)
	}
}

func (s *Scheduler) runJob(job *Job) {
	start := time.Now()
	logging.Info("Starting transcode job %s (%s)", job.ID, job.Label)

	err := job.Run(s.ctx)

	duration := time.Since(start)
	if job.Kind != "" {
		metrics.QueueJobDuration.WithLabelValues(job.Kind).Observe(duration.Seconds())
	}

	s.mu.Lock()
	s.active--
	if err != nil {
		s.cycleFailed++
		metrics.QueueJobsTotal.WithLabelValues("failed").Inc()
		logging.Error("Transcode job %s failed after %s: %v", job.ID, duration.Round(time.Millisecond), err)
	} else {
		s.cycleCompleted++
		metrics.QueueJobsTotal.WithLabelValues("completed").Inc()
		logging.Info("Transcode job %s completed in %s", job.ID, duration.Round(time.Millisecond))
	}

	if s.active == 0 && len(s.pending) == 0 {
		s.currentLabel = ""
		if s.idle != nil {
			close(s.idle)
			s.idle = nil
		}
	} else {
		s.dispatchLocked()
	}
	metrics.QueueActiveJobs.Set(float64(s.active))
	s.mu.Unlock()
}

// Snapshot returns the current queue state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Pending:          len(s.pending),
		Active:           s.active,
		TotalInCycle:     s.cycleTotal,
		CompletedInCycle: s.cycleCompleted,
		FailedInCycle:    s.cycleFailed,
		CurrentLabel:     s.currentLabel,
	}
	if s.cycleTotal > 0 {
		snap.Percent = float64(s.cycleCompleted+s.cycleFailed) / float64(s.cycleTotal) * 100
		snap.CycleStartedAt = s.cycleStartedAt
	}
	return snap
}

// Shutdown stops admitting jobs and waits for in-flight and pending work
// to finish. If the context expires first, running jobs are cancelled and
// the context error is returned.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.stopping = true
	if !s.started || (s.active == 0 && len(s.pending) == 0) {
		s.pending = nil
		s.mu.Unlock()
		s.cancel()
		return nil
	}
	idle := make(chan struct{})
	s.idle = idle
	s.mu.Unlock()

	logging.Info("Waiting for transcode queue to drain")
	select {
	case <-idle:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}
