package player

import (
	"time"

	"signage/internal/logging"
	"signage/internal/player/api"
)

// maxHeartbeatBackoffFactor caps the heartbeat retry interval at this
// multiple of the configured cadence.
const maxHeartbeatBackoffFactor = 8

// scheduleHeartbeatLocked arms the next heartbeat.
func (e *Engine) scheduleHeartbeatLocked(d time.Duration) {
	if e.heartbeatTimer != nil {
		e.heartbeatTimer.Stop()
	}
	e.heartbeatTimer = e.clock.AfterFunc(d, e.heartbeatTick)
}

func (e *Engine) heartbeatTick() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	ctx := e.ctx
	status := e.statusLocked()
	e.mu.Unlock()

	err := e.client.PostStatus(ctx, status)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return
	}

	next := e.config.HeartbeatInterval
	if err != nil {
		e.heartbeatFailures++
		// Cap the exponent before shifting; a long outage would
		// otherwise overflow the factor into garbage intervals.
		factor := time.Duration(maxHeartbeatBackoffFactor)
		if e.heartbeatFailures < 3 {
			factor = time.Duration(1) << e.heartbeatFailures
		}
		next = e.config.HeartbeatInterval * factor
		logging.Warn("Heartbeat failed (attempt %d), next in %s: %v", e.heartbeatFailures, next, err)
	} else {
		e.heartbeatFailures = 0
	}
	e.scheduleHeartbeatLocked(next)
}

// statusLocked assembles the heartbeat payload.
func (e *Engine) statusLocked() api.Status {
	status := api.Status{State: e.state}
	item, ok := e.currentLocked()
	if !ok || !e.playing {
		return status
	}
	status.CurrentItemID = item.ID
	status.MediaKind = item.Type
	if item.Type == "video" {
		status.CurrentTime = e.surface.Position()
	} else {
		status.CurrentTime = e.clock.Now().Sub(e.itemStartedAt).Seconds()
	}
	return status
}

// scheduleHealthLocked arms the periodic self-heal check.
func (e *Engine) scheduleHealthLocked() {
	if e.healthTimer != nil {
		e.healthTimer.Stop()
	}
	e.healthTimer = e.clock.AfterFunc(e.config.HealthInterval, e.healthTick)
}

// healthTick resumes playback that should be running but is not. An
// unattended display has nobody to press play after a transient runtime
// hiccup pauses the element.
func (e *Engine) healthTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return
	}

	item, ok := e.currentLocked()
	if ok && e.playing && !e.userPaused && item.Type == "video" && e.surface.Paused() {
		logging.Warn("Video paused unexpectedly, resuming")
		if err := e.surface.Play(e.muted); err != nil {
			logging.Warn("Self-heal resume failed: %v", err)
		}
	}
	e.scheduleHealthLocked()
}
