package player

import (
	"time"

	"signage/internal/logging"
	"signage/internal/player/api"
)

// scheduleRefreshLocked (re)arms the playlist refresh timer. A zero
// delay requests an eager refresh, used when playback wraps past the
// end of the rotation.
func (e *Engine) scheduleRefreshLocked(d time.Duration) {
	if e.refreshTimer != nil {
		e.refreshTimer.Stop()
	}
	e.refreshTimer = e.clock.AfterFunc(d, e.refreshTick)
}

func (e *Engine) refreshTick() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	ctx := e.ctx
	e.mu.Unlock()

	items, err := e.client.Playlist(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return
	}
	if err != nil {
		logging.Warn("Playlist refresh failed: %v", err)
	} else {
		e.applyPlaylistLocked(items)
	}
	e.scheduleRefreshLocked(e.config.RefreshInterval)
}

// applyPlaylistLocked swaps in a fresh playlist only when the id
// sequence actually changed, so an unchanged rotation never interrupts
// playback. The current item keeps playing when it survives the edit.
func (e *Engine) applyPlaylistLocked(items []api.Item) {
	if sameIDSequence(e.playlist, items) {
		// Item metadata may still have changed; take the fresh copy.
		e.playlist = items
		return
	}

	current, wasPlaying := e.currentLocked()
	hadItems := len(e.playlist) > 0
	e.playlist = items
	logging.Info("Playlist updated: %d item(s)", len(items))

	if len(items) == 0 {
		e.index = 0
		if e.playing {
			e.startCurrentLocked()
		}
		return
	}

	if !hadItems || !e.playing {
		// Nothing was on screen; start from the top.
		e.index = 0
		e.startCurrentLocked()
		return
	}

	if wasPlaying {
		for i := range items {
			if items[i].ID == current.ID {
				// Current item survives; keep playing it in place.
				e.index = i
				return
			}
		}
	}

	// Current item was removed; resume at the same slot, clamped.
	if e.index >= len(items) {
		e.index = 0
	}
	e.startCurrentLocked()
}

// sameIDSequence reports whether two playlists contain the same ids in
// the same order.
func sameIDSequence(a, b []api.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
