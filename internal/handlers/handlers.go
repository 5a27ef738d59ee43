package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"signage/internal/library"
	"signage/internal/logging"
	"signage/internal/queue"
	"signage/internal/startup"
)

// QueueStatus exposes the scheduler state for the health endpoint.
type QueueStatus interface {
	Snapshot() queue.Snapshot
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	svc       *library.Service
	queue     QueueStatus
	config    *startup.Config
	startTime time.Time
}

// New creates the handler set.
func New(svc *library.Service, q QueueStatus, config *startup.Config) *Handlers {
	return &Handlers{
		svc:       svc,
		queue:     q,
		config:    config,
		startTime: time.Now(),
	}
}

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONCreated writes v as JSON with a 201 status. The Content-Type
// header has to land before WriteHeader or it is dropped.
func writeJSONCreated(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logging.Error("failed to encode JSON error response: %v", err)
	}
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	writeJSON(w, map[string]string{"status": status})
}

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, library.ErrUnsupportedType):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, queue.ErrQueueFull):
		writeJSONError(w, "transcode queue is full, try again later", http.StatusServiceUnavailable)
	default:
		logging.Error("request failed: %v", err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

// decodeJSON parses the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
