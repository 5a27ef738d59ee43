package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"signage/internal/logging"
	"signage/internal/queue"
	"signage/internal/store"
	"signage/internal/transcoder"
)

// HLS packaging states for a library item.
const (
	HLSReady      = "ready"
	HLSProcessing = "processing"
	HLSError      = "error"
	HLSMissing    = "missing"
	HLSNA         = "na"
)

// ErrNotFound is returned when an item id resolves to nothing.
var ErrNotFound = errors.New("item not found")

// VideoView is a MediaItem together with its volatile HLS state.
type VideoView struct {
	store.MediaItem
	HLSStatus string `json:"hlsStatus"`
}

// PlaylistItem is one resolved entry of the playback rotation, with the
// URLs the display client needs.
type PlaylistItem struct {
	Type            string        `json:"type"`
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	URL             string        `json:"url,omitempty"`
	HLSURL          string        `json:"hlsUrl,omitempty"`
	Thumbnail       string        `json:"thumbnail,omitempty"`
	Duration        float64       `json:"duration,omitempty"`
	DisplayDuration float64       `json:"displayDuration,omitempty"`
	Footer          string        `json:"footer,omitempty"`
	Photos          []store.Photo `json:"photos,omitempty"`
	AudioURL        string        `json:"audioUrl,omitempty"`
}

// HLSStatus reports the adaptive packaging state for a media item.
func (s *Service) HLSStatus(item *store.MediaItem) string {
	if item.Kind != store.KindVideo {
		return HLSNA
	}

	s.mu.Lock()
	processing := s.processing[item.ID]
	failed := s.failed[item.ID]
	s.mu.Unlock()

	if processing {
		return HLSProcessing
	}
	if failed {
		return HLSError
	}
	if item.HLSManifest != "" {
		if _, err := os.Stat(filepath.Join(s.paths.HLS, item.HLSManifest)); err == nil {
			return HLSReady
		}
	}
	return HLSMissing
}

// Videos lists all media items with their HLS state.
func (s *Service) Videos() ([]VideoView, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	views := make([]VideoView, 0, len(snap.Videos))
	for i := range snap.Videos {
		views = append(views, VideoView{
			MediaItem: snap.Videos[i],
			HLSStatus: s.HLSStatus(&snap.Videos[i]),
		})
	}
	return views, nil
}

// GetVideo returns one media item by id.
func (s *Service) GetVideo(id string) (*store.MediaItem, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if rec := findVideo(snap, id); rec != nil {
		item := *rec
		return &item, nil
	}
	return nil, ErrNotFound
}

// VideoUpdate carries the mutable fields of a media item. Nil fields are
// left unchanged.
type VideoUpdate struct {
	Title           *string  `json:"title"`
	DisplayDuration *float64 `json:"displayDuration"`
}

// UpdateVideo applies a partial update to a media item.
func (s *Service) UpdateVideo(id string, update VideoUpdate) (*store.MediaItem, error) {
	var result store.MediaItem
	err := s.mutate(func(snap *store.Snapshot) error {
		rec := findVideo(snap, id)
		if rec == nil {
			return ErrNotFound
		}
		if update.Title != nil {
			rec.Title = *update.Title
		}
		if update.DisplayDuration != nil && rec.Kind == store.KindImage {
			rec.DisplayDuration = ClampImageDuration(*update.DisplayDuration)
		}
		result = *rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteVideo removes a media item and everything derived from it: the
// playlist entries, upload file, thumbnail, HLS tree, and state markers.
func (s *Service) DeleteVideo(id string) error {
	var removed *store.MediaItem
	err := s.mutate(func(snap *store.Snapshot) error {
		for i := range snap.Videos {
			if snap.Videos[i].ID == id {
				item := snap.Videos[i]
				removed = &item
				snap.Videos = append(snap.Videos[:i], snap.Videos[i+1:]...)
				break
			}
		}
		if removed == nil {
			return ErrNotFound
		}
		snap.Playlist = prunePlaylist(snap.Playlist, id)
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.processing, id)
	delete(s.failed, id)
	s.mu.Unlock()

	if removed.Filename != "" {
		if err := os.Remove(filepath.Join(s.paths.Uploads, removed.Filename)); err != nil && !os.IsNotExist(err) {
			logging.Warn("Could not remove upload for %s: %v", id, err)
		}
	}
	if removed.Thumbnail != "" {
		os.Remove(filepath.Join(s.paths.Thumbnails, removed.Thumbnail))
	}
	os.RemoveAll(filepath.Join(s.paths.HLS, id))

	logging.Info("Deleted %s (%s)", removed.OriginalName, id)
	return nil
}

// Playlist returns the ordered rotation. With readyOnly set, videos whose
// adaptive package is not ready are dropped; images and non-empty photo
// groups always pass.
func (s *Service) Playlist(readyOnly bool) ([]PlaylistItem, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	entries := snap.Playlist
	if len(entries) == 0 {
		// No explicit order; every media item plays in creation order.
		entries = make([]store.PlaylistEntry, 0, len(snap.Videos))
		for _, item := range snap.Videos {
			entries = append(entries, store.PlaylistEntry{Type: store.EntryMedia, ID: item.ID})
		}
	}

	items := make([]PlaylistItem, 0, len(entries))
	for _, e := range entries {
		switch e.Type {
		case store.EntryPhotoGroup:
			group := findGroup(snap, e.ID)
			if group == nil || len(group.Photos) == 0 {
				continue
			}
			items = append(items, s.groupPlaylistItem(snap, group))
		default:
			rec := findVideo(snap, e.ID)
			if rec == nil {
				continue
			}
			status := s.HLSStatus(rec)
			if readyOnly && rec.Kind == store.KindVideo && status != HLSReady {
				continue
			}
			items = append(items, s.mediaPlaylistItem(rec, status))
		}
	}
	return items, nil
}

func (s *Service) mediaPlaylistItem(rec *store.MediaItem, status string) PlaylistItem {
	item := PlaylistItem{
		Type:     rec.Kind,
		ID:       rec.ID,
		Title:    rec.Title,
		URL:      "/uploads/" + rec.Filename,
		Duration: rec.Duration,
	}
	if rec.Thumbnail != "" {
		item.Thumbnail = "/thumbnails/" + rec.Thumbnail
	}
	if rec.Kind == store.KindImage {
		item.DisplayDuration = rec.DisplayDuration
	}
	if status == HLSReady {
		item.HLSURL = "/hls/" + filepath.ToSlash(rec.HLSManifest)
	}
	return item
}

func (s *Service) groupPlaylistItem(snap *store.Snapshot, group *store.PhotoGroup) PlaylistItem {
	item := PlaylistItem{
		Type:            "photoGroup",
		ID:              group.ID,
		Title:           group.Title,
		Footer:          group.Footer,
		DisplayDuration: group.DisplayDuration,
		Photos:          group.Photos,
	}
	if item.DisplayDuration <= 0 {
		item.DisplayDuration = snap.Settings.PhotoGroupDuration
	}
	if snap.Settings.PhotoAudio != "" {
		item.AudioURL = "/uploads/" + snap.Settings.PhotoAudio
	}
	return item
}

// SetPlaylist replaces the rotation order. Entries referencing unknown
// ids are rejected.
func (s *Service) SetPlaylist(entries []store.PlaylistEntry) error {
	return s.mutate(func(snap *store.Snapshot) error {
		for _, e := range entries {
			switch e.Type {
			case store.EntryPhotoGroup:
				if findGroup(snap, e.ID) == nil {
					return fmt.Errorf("%w: photo group %s", ErrNotFound, e.ID)
				}
			case store.EntryMedia:
				if findVideo(snap, e.ID) == nil {
					return fmt.Errorf("%w: media %s", ErrNotFound, e.ID)
				}
			default:
				return fmt.Errorf("unknown playlist entry type %q", e.Type)
			}
		}
		snap.Playlist = entries
		return nil
	})
}

// Backfill queues adaptive packaging for every video whose master
// manifest is absent from disk. Items already processing are skipped, and
// items whose upload file has vanished are logged and left alone. Returns
// the number of jobs queued.
func (s *Service) Backfill() (int, error) {
	snap, err := s.snapshot()
	if err != nil {
		return 0, err
	}

	queued := 0
	for i := range snap.Videos {
		item := snap.Videos[i]
		if item.Kind != store.KindVideo {
			continue
		}
		status := s.HLSStatus(&item)
		if status == HLSReady || status == HLSProcessing {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.paths.Uploads, item.Filename)); err != nil {
			logging.Warn("Skipping backfill for %s: source file missing", item.ID)
			continue
		}

		id := item.ID
		s.setProcessing(id, true)
		err := s.jobs.Enqueue(queue.Job{
			ID:    id,
			Label: item.OriginalName,
			Kind:  "backfill",
			Run: func(ctx context.Context) error {
				return s.backfillVideo(id)
			},
		})
		if err != nil {
			s.setProcessing(id, false)
			logging.Warn("Could not queue backfill for %s: %v", id, err)
			continue
		}
		queued++
	}

	if queued > 0 {
		logging.Info("Queued adaptive packaging backfill for %d video(s)", queued)
	}
	return queued, nil
}

// backfillVideo rebuilds the adaptive package for an already-normalized
// video.
func (s *Service) backfillVideo(id string) error {
	item, err := s.GetVideo(id)
	if err != nil {
		// Deleted while queued; nothing to do.
		if errors.Is(err, ErrNotFound) {
			s.setProcessing(id, false)
			return nil
		}
		s.markFailed(id, err)
		return err
	}

	path := filepath.Join(s.paths.Uploads, item.Filename)
	height := item.Height
	if height == 0 {
		info, err := s.inspector.Video(path)
		if err != nil {
			s.markFailed(id, err)
			return err
		}
		height = info.Height
	}

	hlsDir := filepath.Join(s.paths.HLS, id)
	if err := s.encoder.BuildAdaptivePackage(path, hlsDir, height); err != nil {
		os.RemoveAll(hlsDir)
		s.markFailed(id, err)
		return err
	}

	err = s.mutate(func(snap *store.Snapshot) error {
		if rec := findVideo(snap, id); rec != nil {
			rec.HLSManifest = filepath.Join(id, transcoder.MasterManifestName)
		}
		return nil
	})
	if err != nil {
		s.markFailed(id, err)
		return err
	}

	s.setProcessing(id, false)
	return nil
}
