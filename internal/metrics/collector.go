package metrics

import (
	"time"

	"signage/internal/logging"
)

// StatsProvider interface for collecting library stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current library statistics
type Stats struct {
	TotalVideos      int
	TotalImages      int
	TotalPhotoGroups int
	Processing       int
	Errored          int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LibraryItems.WithLabelValues("video").Set(float64(stats.TotalVideos))
	LibraryItems.WithLabelValues("image").Set(float64(stats.TotalImages))
	LibraryItems.WithLabelValues("photo_group").Set(float64(stats.TotalPhotoGroups))
	LibraryProcessingItems.Set(float64(stats.Processing))
	LibraryErrorItems.Set(float64(stats.Errored))

	logging.Debug("Metrics collected: videos=%d, images=%d, groups=%d, processing=%d, errored=%d",
		stats.TotalVideos, stats.TotalImages, stats.TotalPhotoGroups, stats.Processing, stats.Errored)
}
