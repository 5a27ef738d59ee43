package player

import (
	"signage/internal/logging"
	"signage/internal/player/api"
)

// startCollageLocked shows a photo group: a rotating window of photos
// on the overall wall-clock timer, with optional looping background
// audio.
func (e *Engine) startCollageLocked(item api.Item) {
	e.renderCollageLocked(item)
	e.itemRemaining = displayDuration(item.DisplayDuration, e.config.GroupDuration)
	e.resumedAt = e.clock.Now()
	e.state = StatePlaying

	if item.AudioURL != "" {
		e.startAudioLocked(item)
	}

	if e.userPaused {
		e.timerPaused = true
		e.state = StatePaused
		return
	}
	e.armItemTimerLocked()
	e.armCollageTickerLocked(item)
}

// renderCollageLocked shows the current window of photos.
func (e *Engine) renderCollageLocked(item api.Item) {
	n := len(item.Photos)
	if n == 0 {
		return
	}
	window := e.config.CollageWindow
	if window > n {
		window = n
	}
	urls := make([]string, 0, window)
	for i := 0; i < window; i++ {
		photo := item.Photos[(e.collageOffset+i)%n]
		urls = append(urls, e.client.Resolve(photo.PhotoURL()))
	}
	e.surface.ShowCollage(urls)
}

// armCollageTickerLocked rotates the photo window on a fixed cadence so
// every photo in the group gets screen time.
func (e *Engine) armCollageTickerLocked(item api.Item) {
	if len(item.Photos) <= e.config.CollageWindow {
		return
	}
	id := e.attempt
	e.timers.set(timerCollage, e.config.CollageInterval, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if id != e.attempt {
			return
		}
		e.collageOffset = (e.collageOffset + e.config.CollageWindow) % len(item.Photos)
		e.renderCollageLocked(item)
		e.armCollageTickerLocked(item)
	})
}

// startAudioLocked starts the looping background track, mirroring the
// engine mute state. Failures retry with exponential backoff for as
// long as the group stays on screen.
func (e *Engine) startAudioLocked(item api.Item) {
	err := e.surface.PlayAudio(e.client.Resolve(item.AudioURL), e.muted)
	if err == nil {
		e.audioFailures = 0
		return
	}

	e.audioFailures++
	// Double up to the cap without shifting by the raw failure count,
	// which overflows once the group has been failing for a while.
	delay := e.config.AudioRetryBase
	for i := 1; i < e.audioFailures && delay < e.config.AudioRetryMax; i++ {
		delay *= 2
	}
	if delay > e.config.AudioRetryMax {
		delay = e.config.AudioRetryMax
	}
	logging.Warn("Background audio failed (attempt %d), retrying in %s: %v", e.audioFailures, delay, err)

	id := e.attempt
	e.timers.set(timerAudioRetry, delay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if id != e.attempt {
			return
		}
		e.startAudioLocked(item)
	})
}
