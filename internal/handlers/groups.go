package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"signage/internal/library"
)

// ListPhotoGroups returns all photo groups.
func (h *Handlers) ListPhotoGroups(w http.ResponseWriter, _ *http.Request) {
	groups, err := h.svc.PhotoGroups()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, groups)
}

// GetPhotoGroup returns one photo group.
func (h *Handlers) GetPhotoGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.svc.GetPhotoGroup(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, group)
}

// CreatePhotoGroup adds a new empty photo group.
func (h *Handlers) CreatePhotoGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title           string  `json:"title"`
		Footer          string  `json:"footer"`
		DisplayDuration float64 `json:"displayDuration"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Title == "" {
		writeJSONError(w, "title is required", http.StatusBadRequest)
		return
	}

	group, err := h.svc.CreatePhotoGroup(body.Title, body.Footer, body.DisplayDuration)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONCreated(w, group)
}

// UpdatePhotoGroup applies a partial update to a photo group.
func (h *Handlers) UpdatePhotoGroup(w http.ResponseWriter, r *http.Request) {
	var update library.PhotoGroupUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	group, err := h.svc.UpdatePhotoGroup(mux.Vars(r)["id"], update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, group)
}

// DeletePhotoGroup removes a photo group and its photos.
func (h *Handlers) DeletePhotoGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePhotoGroup(mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONStatus(w, "deleted")
}

// AddPhoto accepts a multipart photo upload into a group.
func (h *Handlers) AddPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadMB<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "missing or oversized file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	photo, err := h.svc.AddPhoto(mux.Vars(r)["id"], header.Filename, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONCreated(w, photo)
}

// DeletePhoto removes one photo from a group.
func (h *Handlers) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.DeletePhoto(vars["id"], vars["photoId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONStatus(w, "deleted")
}

// GetPhotoAudio reports the configured background audio track.
func (h *Handlers) GetPhotoAudio(w http.ResponseWriter, _ *http.Request) {
	settings, err := h.svc.Settings()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if settings.PhotoAudio == "" {
		writeJSON(w, map[string]interface{}{"configured": false})
		return
	}
	writeJSON(w, map[string]interface{}{
		"configured": true,
		"url":        "/uploads/" + settings.PhotoAudio,
	})
}

// SetPhotoAudio uploads or replaces the background audio track.
func (h *Handlers) SetPhotoAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadMB<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "missing or oversized file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename, err := h.svc.SetPhotoAudio(header.Filename, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONCreated(w, map[string]string{"url": "/uploads/" + filename})
}

// DeletePhotoAudio removes the background audio track.
func (h *Handlers) DeletePhotoAudio(w http.ResponseWriter, _ *http.Request) {
	if err := h.svc.ClearPhotoAudio(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONStatus(w, "deleted")
}
