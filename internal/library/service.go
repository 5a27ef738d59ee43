package library

import (
	"sync"
	"time"

	"signage/internal/metrics"
	"signage/internal/probe"
	"signage/internal/queue"
	"signage/internal/store"
)

// Paths locates the on-disk media directories.
type Paths struct {
	Uploads    string
	Thumbnails string
	HLS        string
}

// Encoder is the subset of the transcode engine the service needs.
type Encoder interface {
	NormalizeToMP4(input, output string) error
	Thumbnail(input, output string, seekSeconds float64) error
	BuildAdaptivePackage(input, outputDir string, sourceHeight int) error
}

// Inspector reads media metadata.
type Inspector interface {
	Video(path string) (*probe.VideoInfo, error)
	Image(path string) (*probe.ImageInfo, error)
}

// Jobs is the subset of the scheduler the service needs.
type Jobs interface {
	Enqueue(job queue.Job) error
}

// Service owns the media library: ingest, processing state, playlist
// assembly, settings, and playback stats. All snapshot mutations are
// read-modify-write cycles serialized by one mutex.
type Service struct {
	store     *store.Store
	jobs      Jobs
	encoder   Encoder
	inspector Inspector
	paths     Paths

	mu sync.Mutex
	// processing and failed track adaptive packaging state per item id.
	// They are volatile; manifest presence on disk is the durable signal.
	processing map[string]bool
	failed     map[string]bool

	statusMu     sync.Mutex
	playerStatus PlayerStatus
}

// PlayerStatus is the last state reported by the display client. It is
// volatile and resets on server restart.
type PlayerStatus struct {
	CurrentItemID string    `json:"currentItemId,omitempty"`
	CurrentTime   float64   `json:"currentTime"`
	State         string    `json:"state,omitempty"`
	MediaKind     string    `json:"mediaKind,omitempty"`
	LastError     string    `json:"lastError,omitempty"`
	LastUpdate    time.Time `json:"lastUpdate,omitzero"`
}

// New creates the library service.
func New(st *store.Store, jobs Jobs, encoder Encoder, inspector Inspector, paths Paths) *Service {
	return &Service{
		store:      st,
		jobs:       jobs,
		encoder:    encoder,
		inspector:  inspector,
		paths:      paths,
		processing: make(map[string]bool),
		failed:     make(map[string]bool),
	}
}

// mutate runs fn against the current snapshot and persists the result.
// fn returning an error abandons the write.
func (s *Service) mutate(fn func(*store.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(fn)
}

func (s *Service) mutateLocked(fn func(*store.Snapshot) error) error {
	snap, err := s.store.Read()
	if err != nil {
		return err
	}
	if err := fn(snap); err != nil {
		return err
	}
	return s.store.Write(snap)
}

// snapshot returns the current library state for read-only use.
func (s *Service) snapshot() (*store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Read()
}

// SetPlayerStatus records a status ping from the display client.
func (s *Service) SetPlayerStatus(status PlayerStatus) {
	status.LastUpdate = time.Now()
	s.statusMu.Lock()
	s.playerStatus = status
	s.statusMu.Unlock()
	metrics.PlayerLastSeenTimestamp.Set(float64(status.LastUpdate.Unix()))
}

// GetPlayerStatus returns the last reported player state.
func (s *Service) GetPlayerStatus() PlayerStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.playerStatus
}

// GetStats implements metrics.StatsProvider.
func (s *Service) GetStats() metrics.Stats {
	snap, err := s.snapshot()
	if err != nil {
		return metrics.Stats{}
	}

	stats := metrics.Stats{TotalPhotoGroups: len(snap.PhotoGroups)}
	for _, item := range snap.Videos {
		if item.Kind == store.KindImage {
			stats.TotalImages++
		} else {
			stats.TotalVideos++
		}
	}

	s.mu.Lock()
	stats.Processing = len(s.processing)
	stats.Errored = len(s.failed)
	s.mu.Unlock()
	return stats
}
