package handlers

import (
	"net/http"

	"signage/internal/library"
	"signage/internal/logging"
	"signage/internal/metrics"
)

// GetSettings returns the display settings.
func (h *Handlers) GetSettings(w http.ResponseWriter, _ *http.Request) {
	settings, err := h.svc.Settings()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, settings)
}

// UpdateSettings applies a partial settings update.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update library.SettingsUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	settings, err := h.svc.UpdateSettings(update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, settings)
}

// ApplyImageDuration sets the default display duration on every image.
func (h *Handlers) ApplyImageDuration(w http.ResponseWriter, _ *http.Request) {
	count, err := h.svc.ApplyDefaultDurationToImages()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]int{"updated": count})
}

// GetStats returns playback statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	report, err := h.svc.Stats()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, report)
}

// ClearErrors empties the rolling playback error window.
func (h *Handlers) ClearErrors(w http.ResponseWriter, _ *http.Request) {
	if err := h.svc.ClearErrors(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONStatus(w, "cleared")
}

// PlayerStatusPing records a heartbeat from the display client.
func (h *Handlers) PlayerStatusPing(w http.ResponseWriter, r *http.Request) {
	var status library.PlayerStatus
	if err := decodeJSON(r, &status); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.svc.SetPlayerStatus(status)
	writeJSONStatus(w, "ok")
}

// PlayerEvent records a playback event from the display client.
func (h *Handlers) PlayerEvent(w http.ResponseWriter, r *http.Request) {
	var event struct {
		Type    string `json:"type"`
		ItemID  string `json:"itemId"`
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &event); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	metrics.PlayerEventsTotal.WithLabelValues(event.Type).Inc()

	switch event.Type {
	case "videoChanged":
		if err := h.svc.RecordVideoPlayed(); err != nil {
			writeServiceError(w, err)
			return
		}
	case "error":
		if err := h.svc.RecordPlaybackError(event.Message, event.ItemID); err != nil {
			writeServiceError(w, err)
			return
		}
	default:
		logging.Debug("Player event: %s item=%s %s", event.Type, event.ItemID, event.Message)
	}
	writeJSONStatus(w, "ok")
}

// CleanupThumbnails removes orphaned thumbnail files.
func (h *Handlers) CleanupThumbnails(w http.ResponseWriter, _ *http.Request) {
	removed, err := h.svc.CleanupThumbnails()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]int{"removed": removed})
}
