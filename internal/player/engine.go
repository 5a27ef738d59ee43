package player

import (
	"context"
	"sync"
	"time"

	"signage/internal/logging"
	"signage/internal/player/api"
)

// Playback states reported in heartbeats.
const (
	StateIdle    = "idle"
	StatePlaying = "playing"
	StatePaused  = "paused"
)

// APIClient is the engine's view of the server API.
type APIClient interface {
	Playlist(ctx context.Context) ([]api.Item, error)
	PostStatus(ctx context.Context, status api.Status) error
	PostEvent(ctx context.Context, event api.Event) error
	// Resolve turns a server-relative media path into a URL the surface
	// can load.
	Resolve(path string) string
}

// Config tunes the playback state machine. Zero values fall back to
// defaults.
type Config struct {
	// StallTimeout is how long a freshly loaded video may sit without
	// producing any data before it is treated as failed.
	StallTimeout      time.Duration
	RetryDelay        time.Duration
	MaxRetries        int
	RefreshInterval   time.Duration
	HeartbeatInterval time.Duration
	HealthInterval    time.Duration
	CollageInterval   time.Duration
	CollageWindow     int
	AudioRetryBase    time.Duration
	AudioRetryMax     time.Duration

	// ConstrainedRuntime disables adaptive streams on displays whose
	// runtime cannot sustain them; playback uses the progressive source.
	ConstrainedRuntime bool

	// Fallback display durations when the playlist omits them.
	ImageDuration time.Duration
	GroupDuration time.Duration
}

func (c *Config) applyDefaults() {
	if c.StallTimeout <= 0 {
		c.StallTimeout = 25 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 30 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 60 * time.Second
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = 60 * time.Second
	}
	if c.CollageInterval <= 0 {
		c.CollageInterval = 4 * time.Second
	}
	if c.CollageWindow <= 0 {
		c.CollageWindow = 3
	}
	if c.AudioRetryBase <= 0 {
		c.AudioRetryBase = 2 * time.Second
	}
	if c.AudioRetryMax <= 0 {
		c.AudioRetryMax = time.Minute
	}
	if c.ImageDuration <= 0 {
		c.ImageDuration = 15 * time.Second
	}
	if c.GroupDuration <= 0 {
		c.GroupDuration = 30 * time.Second
	}
}

// Engine is the playback state machine. One mutex guards all state;
// every scheduled continuation captures the attempt id current when it
// was armed and no-ops once a newer attempt has started.
type Engine struct {
	surface Surface
	client  APIClient
	clock   Clock
	config  Config

	mu     sync.Mutex
	timers *timerRegistry
	ctx    context.Context
	cancel context.CancelFunc

	playlist []api.Item
	index    int
	attempt  uint64
	started  bool
	playing  bool
	state    string

	userPaused    bool
	muted         bool
	promptVisible bool
	// directOnly forces the progressive source after a fatal adaptive
	// delivery error. It resets on the next attempt.
	directOnly bool

	retryItemID string
	retryCount  int

	// Wall-clock timing for images and photo groups.
	itemRemaining time.Duration
	resumedAt     time.Time
	timerPaused   bool

	itemStartedAt time.Time
	collageOffset int
	audioFailures int

	heartbeatFailures int

	refreshTimer   Timer
	heartbeatTimer Timer
	healthTimer    Timer
}

// New creates an Engine. The surface, client, and clock are injected so
// the machine runs headless under test.
func New(surface Surface, client APIClient, clock Clock, config Config) *Engine {
	config.applyDefaults()
	return &Engine{
		surface: surface,
		client:  client,
		clock:   clock,
		config:  config,
		timers:  newTimerRegistry(clock),
		state:   StateIdle,
	}
}

// Start fetches the playlist and begins playback. The context bounds
// every outgoing request; cancel it or call Stop to halt the engine.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.scheduleRefreshLocked(e.config.RefreshInterval)
	e.scheduleHeartbeatLocked(e.config.HeartbeatInterval)
	e.scheduleHealthLocked()
	e.mu.Unlock()

	items, err := e.client.Playlist(e.ctx)
	if err != nil {
		// The refresh loop keeps retrying; an unreachable server at
		// boot is routine for an unattended display.
		logging.Warn("Initial playlist fetch failed: %v", err)
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.playlist = items
	if len(items) > 0 {
		e.index = 0
		e.startCurrentLocked()
	}
	return nil
}

// Stop halts playback and all timers.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return
	}
	e.started = false
	e.attempt++
	e.timers.clearAll()
	e.stopPersistentLocked()
	e.surface.Pause()
	e.surface.StopAudio()
	if e.cancel != nil {
		e.cancel()
	}
	e.state = StateIdle
}

func (e *Engine) stopPersistentLocked() {
	for _, t := range []Timer{e.refreshTimer, e.heartbeatTimer, e.healthTimer} {
		if t != nil {
			t.Stop()
		}
	}
}

// currentLocked returns the active playlist item.
func (e *Engine) currentLocked() (api.Item, bool) {
	if e.index >= 0 && e.index < len(e.playlist) {
		return e.playlist[e.index], true
	}
	return api.Item{}, false
}

// startCurrentLocked is the single transition point. It invalidates
// every outstanding continuation, clears the playback timers, and hands
// the current item to its kind-specific starter.
func (e *Engine) startCurrentLocked() {
	e.attempt++
	e.timers.clearAll()
	e.surface.StopAudio()
	e.directOnly = false
	e.timerPaused = false
	e.audioFailures = 0
	e.collageOffset = 0

	item, ok := e.currentLocked()
	if !ok {
		e.playing = false
		e.state = StateIdle
		return
	}

	e.playing = true
	e.itemStartedAt = e.clock.Now()
	logging.Debug("Starting %s %s (%s)", item.Type, item.ID, item.Title)

	switch item.Type {
	case "video":
		e.postEventLocked(api.Event{Type: "videoChanged", ItemID: item.ID})
		e.startVideoLocked(item)
	case "photoGroup":
		e.startCollageLocked(item)
	default:
		e.startImageLocked(item)
	}
}

// advanceLocked moves to the next item. Wrapping past the end triggers
// an eager playlist refresh so a long rotation picks up edits promptly.
func (e *Engine) advanceLocked() {
	if len(e.playlist) == 0 {
		return
	}
	e.index++
	if e.index >= len(e.playlist) {
		e.index = 0
		e.scheduleRefreshLocked(0)
	}
	e.startCurrentLocked()
}

// handleErrorLocked implements the retry policy: an item gets retried
// in place up to MaxRetries consecutive errors, then the counter resets
// and playback advances exactly once.
func (e *Engine) handleErrorLocked(item api.Item, cause error) {
	logging.Warn("Playback error on %s %s: %v", item.Type, item.ID, cause)
	e.postEventLocked(api.Event{Type: "error", ItemID: item.ID, Message: cause.Error()})

	if item.ID != e.retryItemID {
		e.retryItemID = item.ID
		e.retryCount = 0
	}
	e.retryCount++

	if e.retryCount >= e.config.MaxRetries {
		e.retryCount = 0
		e.retryItemID = ""
		e.advanceLocked()
		return
	}

	id := e.attempt
	e.timers.set(timerRetry, e.config.RetryDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if id != e.attempt {
			return
		}
		e.startCurrentLocked()
	})
}

// postEventLocked reports an event to the server. Failures are logged
// and otherwise ignored; events are advisory.
func (e *Engine) postEventLocked(event api.Event) {
	if e.ctx == nil {
		return
	}
	if err := e.client.PostEvent(e.ctx, event); err != nil {
		logging.Debug("Could not post %s event: %v", event.Type, err)
	}
}
