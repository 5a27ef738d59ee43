package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"completed", "failed", "rejected"} {
		QueueJobsTotal.WithLabelValues(status)
	}

	for _, kind := range []string{"normalize", "package", "backfill"} {
		QueueJobDuration.WithLabelValues(kind)
	}

	for _, op := range []string{"normalize", "package", "thumbnail", "probe"} {
		TranscodeRunsTotal.WithLabelValues(op, "success")
		TranscodeRunsTotal.WithLabelValues(op, "error")
	}

	for _, r := range []string{"360p", "720p", "1080p"} {
		TranscodeRenditionsTotal.WithLabelValues(r)
	}

	for _, t := range []string{"video", "image", "photo_group"} {
		LibraryItems.WithLabelValues(t)
	}

	for _, status := range []string{"accepted", "rejected", "failed"} {
		UploadsTotal.WithLabelValues(status)
	}

	for _, t := range []string{"stall", "error", "advance", "recovered"} {
		PlayerEventsTotal.WithLabelValues(t)
	}
}
