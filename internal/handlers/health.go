package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"syscall"
	"time"

	"signage/internal/library"
	"signage/internal/queue"
	"signage/internal/startup"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status       string                `json:"status"`
	Version      string                `json:"version"`
	Uptime       string                `json:"uptime"`
	Queue        queue.Snapshot        `json:"queue"`
	Player       library.PlayerStatus  `json:"player"`
	DiskUsage    string                `json:"diskUsage,omitempty"`
	MemoryUsage  string                `json:"memoryUsage"`
	GoVersion    string                `json:"goVersion"`
	NumGoroutine int                   `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:       "healthy",
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Queue:        h.queue.Snapshot(),
		Player:       h.svc.GetPlayerStatus(),
		MemoryUsage:  memoryUsage(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if usage, err := diskUsage(h.config.DataDir); err == nil {
		response.DiskUsage = usage
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe
func (h *Handlers) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, "ok")
}

func memoryUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return fmt.Sprintf("%s alloc / %s sys", formatBytes(m.Alloc), formatBytes(m.Sys))
}

func diskUsage(dir string) (string, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return "", err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	used := total - free
	if total == 0 {
		return "", fmt.Errorf("zero-size filesystem")
	}
	return fmt.Sprintf("%s used / %s total (%.0f%%)",
		formatBytes(used), formatBytes(total), float64(used)/float64(total)*100), nil
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
