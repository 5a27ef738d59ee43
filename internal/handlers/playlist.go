package handlers

import (
	"net/http"

	"signage/internal/store"
)

// GetPlaylist returns the ordered rotation. With ?ready=true, items that
// cannot play yet are dropped; display clients always request this view.
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	readyOnly := r.URL.Query().Get("ready") == "true"
	items, err := h.svc.Playlist(readyOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"items": items})
}

// SetPlaylist replaces the rotation order.
func (h *Handlers) SetPlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Entries []store.PlaylistEntry `json:"entries"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.SetPlaylist(body.Entries); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONStatus(w, "updated")
}
