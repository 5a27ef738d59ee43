package library

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"signage/internal/logging"
	"signage/internal/store"
)

// errorWindow is how long playback errors stay in the rolling stats.
const errorWindow = 24 * time.Hour

// Settings returns the current display settings.
func (s *Service) Settings() (store.Settings, error) {
	snap, err := s.snapshot()
	if err != nil {
		return store.Settings{}, err
	}
	return snap.Settings, nil
}

// SettingsUpdate carries the mutable display settings. Nil fields are
// left unchanged.
type SettingsUpdate struct {
	ImageDefaultDuration *float64 `json:"imageDefaultDuration"`
	PhotoGroupDuration   *float64 `json:"photoGroupDuration"`
}

// UpdateSettings applies a partial settings update with clamping.
func (s *Service) UpdateSettings(update SettingsUpdate) (store.Settings, error) {
	var result store.Settings
	err := s.mutate(func(snap *store.Snapshot) error {
		if update.ImageDefaultDuration != nil {
			snap.Settings.ImageDefaultDuration = ClampImageDuration(*update.ImageDefaultDuration)
		}
		if update.PhotoGroupDuration != nil {
			snap.Settings.PhotoGroupDuration = ClampGroupDuration(*update.PhotoGroupDuration)
		}
		result = snap.Settings
		return nil
	})
	return result, err
}

// ApplyDefaultDurationToImages sets every image's display duration to the
// configured default. Returns the number of images touched.
func (s *Service) ApplyDefaultDurationToImages() (int, error) {
	count := 0
	err := s.mutate(func(snap *store.Snapshot) error {
		for i := range snap.Videos {
			if snap.Videos[i].Kind == store.KindImage {
				snap.Videos[i].DisplayDuration = snap.Settings.ImageDefaultDuration
				count++
			}
		}
		return nil
	})
	return count, err
}

// StatsReport is the aggregate view served by the stats endpoint.
type StatsReport struct {
	VideosPlayed         int64               `json:"videosPlayed"`
	TotalVideos          int                 `json:"totalVideos"`
	TotalImages          int                 `json:"totalImages"`
	TotalPhotoGroups     int                 `json:"totalPhotoGroups"`
	AverageVideoDuration float64             `json:"averageVideoDuration"`
	RecentErrors         []store.ErrorRecord `json:"recentErrors"`
	LastError            *store.ErrorRecord  `json:"lastError,omitempty"`
	LastRestart          time.Time           `json:"lastRestart,omitzero"`
}

// Stats returns playback statistics with the error window pruned.
func (s *Service) Stats() (*StatsReport, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	report := &StatsReport{
		VideosPlayed:     snap.Stats.VideosPlayed,
		TotalPhotoGroups: len(snap.PhotoGroups),
		RecentErrors:     pruneErrors(snap.Stats.RecentErrors, time.Now()),
		LastError:        snap.Stats.LastError,
		LastRestart:      snap.Stats.LastRestart,
	}
	if report.RecentErrors == nil {
		report.RecentErrors = []store.ErrorRecord{}
	}

	var totalDuration float64
	for _, item := range snap.Videos {
		if item.Kind == store.KindImage {
			report.TotalImages++
			continue
		}
		report.TotalVideos++
		totalDuration += item.Duration
	}
	if report.TotalVideos > 0 {
		report.AverageVideoDuration = totalDuration / float64(report.TotalVideos)
	}
	return report, nil
}

// RecordVideoPlayed increments the playback counter.
func (s *Service) RecordVideoPlayed() error {
	return s.mutate(func(snap *store.Snapshot) error {
		snap.Stats.VideosPlayed++
		return nil
	})
}

// RecordPlaybackError appends a reported error to the rolling window.
func (s *Service) RecordPlaybackError(message, itemID string) error {
	rec := store.ErrorRecord{Message: message, ItemID: itemID, At: time.Now()}
	return s.mutate(func(snap *store.Snapshot) error {
		snap.Stats.RecentErrors = append(pruneErrors(snap.Stats.RecentErrors, rec.At), rec)
		snap.Stats.LastError = &rec
		return nil
	})
}

// ClearErrors empties the rolling error window.
func (s *Service) ClearErrors() error {
	return s.mutate(func(snap *store.Snapshot) error {
		snap.Stats.RecentErrors = nil
		snap.Stats.LastError = nil
		return nil
	})
}

// RecordRestart stamps the stats with the current boot time.
func (s *Service) RecordRestart() error {
	return s.mutate(func(snap *store.Snapshot) error {
		snap.Stats.LastRestart = time.Now()
		return nil
	})
}

func pruneErrors(errs []store.ErrorRecord, now time.Time) []store.ErrorRecord {
	cutoff := now.Add(-errorWindow)
	var kept []store.ErrorRecord
	for _, e := range errs {
		if e.At.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}

// CleanupThumbnails removes thumbnail files that no longer belong to any
// media item or photo. Returns the number of files removed.
func (s *Service) CleanupThumbnails() (int, error) {
	snap, err := s.snapshot()
	if err != nil {
		return 0, err
	}

	known := make(map[string]bool)
	for _, item := range snap.Videos {
		if item.Thumbnail != "" {
			known[item.Thumbnail] = true
		}
	}
	for _, group := range snap.PhotoGroups {
		for _, photo := range group.Photos {
			known[photo.ID+".jpg"] = true
		}
	}

	entries, err := os.ReadDir(s.paths.Thumbnails)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		if known[entry.Name()] {
			continue
		}
		if err := os.Remove(filepath.Join(s.paths.Thumbnails, entry.Name())); err != nil {
			logging.Warn("Could not remove orphan thumbnail %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logging.Info("Removed %d orphan thumbnail(s)", removed)
	}
	return removed, nil
}
