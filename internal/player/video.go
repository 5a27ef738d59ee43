package player

import (
	"errors"
	"fmt"

	"signage/internal/logging"
	"signage/internal/player/api"
)

// startVideoLocked loads and plays a video item. The adaptive stream is
// preferred whenever the server published one; constrained runtimes and
// attempts demoted by a fatal stream error use the progressive source.
func (e *Engine) startVideoLocked(item api.Item) {
	source := item.URL
	if item.HLSURL != "" && !e.config.ConstrainedRuntime && !e.directOnly {
		source = item.HLSURL
	}

	id := e.attempt
	events := VideoEvents{
		Ended: func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if id != e.attempt {
				return
			}
			e.retryItemID = ""
			e.retryCount = 0
			e.advanceLocked()
		},
		Error: func(err error) {
			e.mu.Lock()
			defer e.mu.Unlock()
			if id != e.attempt {
				return
			}
			e.handleErrorLocked(item, err)
		},
		Progress: func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if id != e.attempt {
				return
			}
			e.armStallGuardLocked(item)
		},
		FatalStreamError: func(err error) {
			e.mu.Lock()
			defer e.mu.Unlock()
			if id != e.attempt {
				return
			}
			e.demoteToDirectLocked(item, err)
		},
	}

	if err := e.surface.LoadVideo(e.client.Resolve(source), events); err != nil {
		e.handleErrorLocked(item, err)
		return
	}

	e.state = StatePlaying

	if e.userPaused {
		e.state = StatePaused
		return
	}
	e.playVideoLocked(item)
	e.armStallGuardLocked(item)
}

// playVideoLocked starts the element, falling back to muted playback
// with an unmute prompt when the runtime rejects unmuted autoplay.
func (e *Engine) playVideoLocked(item api.Item) {
	err := e.surface.Play(e.muted)
	if err == nil {
		return
	}
	if !errors.Is(err, ErrAutoplayRejected) || e.muted {
		e.handleErrorLocked(item, err)
		return
	}

	logging.Info("Unmuted autoplay rejected, retrying muted")
	e.muted = true
	if err := e.surface.Play(true); err != nil {
		e.handleErrorLocked(item, err)
		return
	}
	e.promptVisible = true
	e.surface.ShowUnmutePrompt(true)
}

// armStallGuardLocked (re)schedules the stall timer. It fires only when
// the element has produced no data at all; a slow but moving stream is
// left alone.
func (e *Engine) armStallGuardLocked(item api.Item) {
	id := e.attempt
	e.timers.set(timerStall, e.config.StallTimeout, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if id != e.attempt {
			return
		}
		if e.surface.ReadyState() < ReadyCurrentData && e.surface.Position() == 0 {
			e.handleErrorLocked(item, fmt.Errorf("no data after %s", e.config.StallTimeout))
		}
	})
}

// demoteToDirectLocked reloads the current video from its progressive
// source after a fatal adaptive delivery error. This is a downgrade,
// not a playback failure; the retry counter is untouched.
func (e *Engine) demoteToDirectLocked(item api.Item, cause error) {
	if e.directOnly || item.URL == "" {
		e.handleErrorLocked(item, cause)
		return
	}
	logging.Warn("Adaptive stream failed for %s, falling back to direct playback: %v", item.ID, cause)

	e.attempt++
	e.timers.clearAll()
	e.directOnly = true
	e.startVideoLocked(item)
}
