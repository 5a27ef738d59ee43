package metrics

import (
	"testing"
	"time"
)

func TestHTTPMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestQueueMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"QueuePendingJobs", QueuePendingJobs},
		{"QueueActiveJobs", QueueActiveJobs},
		{"QueueJobsTotal", QueueJobsTotal},
		{"QueueJobDuration", QueueJobDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestLibraryMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"LibraryItems", LibraryItems},
		{"LibraryProcessingItems", LibraryProcessingItems},
		{"LibraryErrorItems", LibraryErrorItems},
		{"UploadsTotal", UploadsTotal},
		{"UploadBytes", UploadBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetrics(t *testing.T) {
	// Must not panic on repeated calls.
	InitializeMetrics()
	InitializeMetrics()
}

type fakeStats struct {
	stats Stats
}

func (f *fakeStats) GetStats() Stats {
	return f.stats
}

func TestCollectorLifecycle(t *testing.T) {
	provider := &fakeStats{stats: Stats{TotalVideos: 3, TotalImages: 2, TotalPhotoGroups: 1}}
	c := NewCollector(provider, time.Hour)
	c.Start()
	// Initial collection is synchronous enough to be racy; just make sure
	// Start/Stop don't deadlock or panic.
	time.Sleep(10 * time.Millisecond)
	c.Stop()
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}
