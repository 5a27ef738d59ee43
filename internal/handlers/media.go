package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"signage/internal/library"
)

// ListVideos returns every media item with its processing state.
func (h *Handlers) ListVideos(w http.ResponseWriter, _ *http.Request) {
	videos, err := h.svc.Videos()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, videos)
}

// GetVideo returns a single media item.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetVideo(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, library.VideoView{MediaItem: *item, HLSStatus: h.svc.HLSStatus(item)})
}

// UpdateVideo applies a partial update to a media item.
func (h *Handlers) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	var update library.VideoUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	item, err := h.svc.UpdateVideo(mux.Vars(r)["id"], update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, item)
}

// DeleteVideo removes a media item and its derived files.
func (h *Handlers) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteVideo(mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONStatus(w, "deleted")
}

// Upload accepts a multipart media upload and admits it to the library.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadMB<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "missing or oversized file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	item, err := h.svc.UploadMedia(header.Filename, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONCreated(w, library.VideoView{MediaItem: *item, HLSStatus: h.svc.HLSStatus(item)})
}

// StreamVideo serves the stored media file with Range support for
// progressive playback.
func (h *Handlers) StreamVideo(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetVideo(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// ServeFile handles Range requests, Content-Type, and conditional
	// headers.
	http.ServeFile(w, r, filepath.Join(h.config.UploadsDir, item.Filename))
}
