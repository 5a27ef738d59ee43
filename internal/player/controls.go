package player

// Controls: the keyboard/remote surface hooks. All are safe to call at
// any time; they no-op when nothing is playing.

// Pause halts the current item until Resume. Timed items capture their
// remaining display time.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.userPaused {
		return
	}
	e.userPaused = true

	item, ok := e.currentLocked()
	if !ok || !e.playing {
		return
	}
	if item.Type == "video" {
		e.surface.Pause()
		e.timers.clear(timerStall)
	} else {
		e.pauseItemTimerLocked()
	}
	e.state = StatePaused
}

// Resume continues a paused item.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.userPaused {
		return
	}
	e.userPaused = false

	item, ok := e.currentLocked()
	if !ok || !e.playing {
		return
	}
	if item.Type == "video" {
		e.playVideoLocked(item)
		e.armStallGuardLocked(item)
	} else {
		e.resumeItemTimerLocked(item)
	}
	e.state = StatePlaying
}

// TogglePause flips between Pause and Resume.
func (e *Engine) TogglePause() {
	e.mu.Lock()
	paused := e.userPaused
	e.mu.Unlock()
	if paused {
		e.Resume()
	} else {
		e.Pause()
	}
}

// Next skips to the following item.
func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.playlist) == 0 {
		return
	}
	e.retryItemID = ""
	e.retryCount = 0
	e.advanceLocked()
}

// Previous skips to the preceding item, wrapping to the end.
func (e *Engine) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.playlist) == 0 {
		return
	}
	e.retryItemID = ""
	e.retryCount = 0
	e.index--
	if e.index < 0 {
		e.index = len(e.playlist) - 1
	}
	e.startCurrentLocked()
}

// Mute silences video and background audio.
func (e *Engine) Mute() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setMutedLocked(true)
}

// Unmute restores audio and dismisses the unmute prompt.
func (e *Engine) Unmute() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setMutedLocked(false)
}

// ToggleMute flips the mute state.
func (e *Engine) ToggleMute() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setMutedLocked(!e.muted)
}

func (e *Engine) setMutedLocked(muted bool) {
	e.muted = muted
	e.surface.SetMuted(muted)
	e.surface.SetAudioMuted(muted)
	if !muted && e.promptVisible {
		e.promptVisible = false
		e.surface.ShowUnmutePrompt(false)
	}
}

// UserInteraction reports any user input. If the unmute prompt is up,
// the interaction unmutes playback; runtimes permit unmuted audio once
// the user has engaged.
func (e *Engine) UserInteraction() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.promptVisible {
		e.setMutedLocked(false)
	}
}

// Seek moves the current item to an absolute position in seconds. For
// timed items the remaining display time is recomputed.
func (e *Engine) Seek(position float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	item, ok := e.currentLocked()
	if !ok || !e.playing {
		return
	}
	if item.Type == "video" {
		e.surface.Seek(position)
		return
	}
	e.seekItemLocked(item, position)
}
