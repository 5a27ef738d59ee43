package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signage_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Transcode queue metrics
var (
	QueuePendingJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_queue_pending_jobs",
			Help: "Number of jobs waiting in the transcode queue",
		},
	)

	QueueActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_queue_active_jobs",
			Help: "Number of transcode jobs currently running",
		},
	)

	QueueJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_queue_jobs_total",
			Help: "Total number of transcode jobs by outcome",
		},
		[]string{"status"}, // "completed", "failed", "rejected"
	)

	QueueJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signage_queue_job_duration_seconds",
			Help:    "Transcode job duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"kind"}, // "normalize", "package", "backfill"
	)
)

// Transcode engine metrics
var (
	TranscodeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_transcode_runs_total",
			Help: "Total number of ffmpeg invocations by operation and status",
		},
		[]string{"operation", "status"},
	)

	TranscodeRenditionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_transcode_renditions_total",
			Help: "Total number of adaptive renditions encoded",
		},
		[]string{"rendition"},
	)
)

// Library metrics
var (
	LibraryItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signage_library_items",
			Help: "Number of items in the media library by type",
		},
		[]string{"type"}, // "video", "image", "photo_group"
	)

	LibraryProcessingItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_library_processing_items",
			Help: "Number of items with adaptive packaging in progress",
		},
	)

	LibraryErrorItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_library_error_items",
			Help: "Number of items whose adaptive packaging failed",
		},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_uploads_total",
			Help: "Total number of upload attempts by status",
		},
		[]string{"status"}, // "accepted", "rejected", "failed"
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_upload_bytes_total",
			Help: "Total bytes received in accepted uploads",
		},
	)
)

// Player metrics, reported by display clients through status pings.
var (
	PlayerLastSeenTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signage_player_last_seen_timestamp_seconds",
			Help: "Unix timestamp of the last player status ping",
		},
	)

	PlayerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_player_events_total",
			Help: "Total number of player events by type",
		},
		[]string{"type"}, // "stall", "error", "advance", "recovered"
	)
)
