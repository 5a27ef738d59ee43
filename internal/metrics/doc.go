// Package metrics provides Prometheus instrumentation for the signage
// server.
//
// All metrics are prefixed with "signage_" to avoid naming collisions with
// other applications, and are registered with the default registry via
// promauto. Mount promhttp.Handler() on the metrics endpoint to expose
// them.
//
// The metrics fall into five groups: HTTP request counters and latency
// histograms, transcode queue depth and job outcomes, ffmpeg invocation
// counters, library content gauges, and player liveness reported through
// status pings.
//
// The [Collector] type periodically pulls library statistics from a
// [StatsProvider] and refreshes the content gauges:
//
//	collector := metrics.NewCollector(svc, time.Minute)
//	collector.Start()
//	defer collector.Stop()
package metrics
