package player

import (
	"time"

	"signage/internal/player/api"
)

// startImageLocked shows a still image for its display duration on a
// wall-clock timer.
func (e *Engine) startImageLocked(item api.Item) {
	e.surface.ShowImage(e.client.Resolve(item.URL))
	e.itemRemaining = displayDuration(item.DisplayDuration, e.config.ImageDuration)
	e.resumedAt = e.clock.Now()
	e.state = StatePlaying

	if e.userPaused {
		e.timerPaused = true
		e.state = StatePaused
		return
	}
	e.armItemTimerLocked()
}

// armItemTimerLocked schedules the advance for the current image or
// photo group from the remaining wall-clock time.
func (e *Engine) armItemTimerLocked() {
	id := e.attempt
	e.timers.set(timerImage, e.itemRemaining, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if id != e.attempt {
			return
		}
		e.advanceLocked()
	})
}

// pauseItemTimerLocked captures the remaining display time and stops
// the timers of a timed item.
func (e *Engine) pauseItemTimerLocked() {
	if e.timerPaused {
		return
	}
	elapsed := e.clock.Now().Sub(e.resumedAt)
	e.itemRemaining -= elapsed
	if e.itemRemaining < 0 {
		e.itemRemaining = 0
	}
	e.timers.clear(timerImage)
	e.timers.clear(timerCollage)
	e.timerPaused = true
}

// resumeItemTimerLocked reschedules a paused timed item for its
// remaining duration.
func (e *Engine) resumeItemTimerLocked(item api.Item) {
	if !e.timerPaused {
		return
	}
	e.timerPaused = false
	e.resumedAt = e.clock.Now()
	e.armItemTimerLocked()
	if item.Type == "photoGroup" {
		e.armCollageTickerLocked(item)
	}
}

// seekItemLocked recomputes the remaining display time of a timed item
// from an absolute position in seconds.
func (e *Engine) seekItemLocked(item api.Item, position float64) {
	total := displayDuration(item.DisplayDuration, e.config.ImageDuration)
	if item.Type == "photoGroup" {
		total = displayDuration(item.DisplayDuration, e.config.GroupDuration)
	}
	remaining := total - time.Duration(position*float64(time.Second))
	if remaining < 0 {
		remaining = 0
	}
	e.itemRemaining = remaining
	e.resumedAt = e.clock.Now()
	if !e.timerPaused {
		e.armItemTimerLocked()
	}
}

// displayDuration converts a playlist duration in seconds to a timer
// duration, falling back when the playlist omits it.
func displayDuration(seconds float64, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}
