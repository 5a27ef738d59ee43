package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"signage/internal/logging"
	"signage/internal/media"
	"signage/internal/mediatypes"
	"signage/internal/metrics"
	"signage/internal/probe"
	"signage/internal/queue"
	"signage/internal/store"
	"signage/internal/transcoder"
)

// ErrUnsupportedType is returned for uploads with an extension outside the
// allowlist.
var ErrUnsupportedType = fmt.Errorf("unsupported media type")

// UploadMedia stores an uploaded file and admits it to the library. Videos
// are processed asynchronously through the transcode queue; images are
// probed inline. The returned item reflects the state at admission time,
// before any async processing completes.
func (s *Service) UploadMedia(originalName string, src io.Reader) (*store.MediaItem, error) {
	kind := mediatypes.KindForFilename(originalName)
	if kind != mediatypes.KindVideo && kind != mediatypes.KindImage {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrUnsupportedType
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	id := uuid.NewString()
	filename := id + ext
	path := filepath.Join(s.paths.Uploads, filename)

	written, err := saveFile(path, src)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("storing upload: %w", err)
	}
	metrics.UploadBytes.Add(float64(written))

	item := store.MediaItem{
		ID:           id,
		Title:        titleFromFilename(originalName),
		Filename:     filename,
		OriginalName: originalName,
		CreatedAt:    time.Now(),
	}

	if kind == mediatypes.KindImage {
		err = s.admitImage(&item)
	} else {
		err = s.admitVideo(&item)
	}
	if err != nil {
		os.Remove(path)
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	return &item, nil
}

func (s *Service) admitImage(item *store.MediaItem) error {
	item.Kind = store.KindImage

	path := filepath.Join(s.paths.Uploads, item.Filename)
	if info, err := s.inspector.Image(path); err != nil {
		logging.Warn("Could not probe image %s: %v", item.OriginalName, err)
	} else {
		item.Width = info.Width
		item.Height = info.Height
	}

	thumbPath := filepath.Join(s.paths.Thumbnails, item.ID+".jpg")
	if err := media.Thumbnail(path, thumbPath, media.DefaultThumbnailSize); err != nil {
		logging.Warn("Could not generate thumbnail for %s: %v", item.OriginalName, err)
	} else {
		item.Thumbnail = item.ID + ".jpg"
	}

	return s.mutate(func(snap *store.Snapshot) error {
		item.DisplayDuration = snap.Settings.ImageDefaultDuration
		snap.Videos = append(snap.Videos, *item)
		snap.Playlist = append(snap.Playlist, store.PlaylistEntry{Type: store.EntryMedia, ID: item.ID})
		return nil
	})
}

func (s *Service) admitVideo(item *store.MediaItem) error {
	item.Kind = store.KindVideo

	if err := s.mutate(func(snap *store.Snapshot) error {
		snap.Videos = append(snap.Videos, *item)
		snap.Playlist = append(snap.Playlist, store.PlaylistEntry{Type: store.EntryMedia, ID: item.ID})
		return nil
	}); err != nil {
		return err
	}

	s.setProcessing(item.ID, true)

	id := item.ID
	label := item.OriginalName
	err := s.jobs.Enqueue(queue.Job{
		ID:    id,
		Label: label,
		Kind:  "normalize",
		Run: func(ctx context.Context) error {
			return s.processVideo(id)
		},
	})
	if err != nil {
		s.setProcessing(id, false)
		// Roll the admission back; the caller removes the file.
		if rbErr := s.removeRecord(id); rbErr != nil {
			logging.Error("Could not roll back admission of %s: %v", id, rbErr)
		}
		return err
	}
	return nil
}

// processVideo runs the full pipeline for one uploaded video: probe,
// conditional normalization, thumbnail, and adaptive packaging.
func (s *Service) processVideo(id string) error {
	item, err := s.GetVideo(id)
	if err != nil {
		return err
	}

	path := filepath.Join(s.paths.Uploads, item.Filename)
	info, err := s.inspector.Video(path)
	if err != nil {
		s.markFailed(id, fmt.Errorf("probing %s: %w", item.OriginalName, err))
		return err
	}

	if needsNormalization(item.Filename, info) {
		normalized := id + ".mp4"
		normalizedPath := filepath.Join(s.paths.Uploads, normalized)
		// Encode through a temp name; the source may itself be id.mp4.
		tmpPath := filepath.Join(s.paths.Uploads, id+".norm.mp4")
		logging.Info("Normalizing %s (%s/%s) to MP4", item.OriginalName, info.Codec, info.AudioCodec)
		if err := s.encoder.NormalizeToMP4(path, tmpPath); err != nil {
			metrics.TranscodeRunsTotal.WithLabelValues("normalize", "error").Inc()
			os.Remove(tmpPath)
			s.markFailed(id, err)
			return err
		}
		metrics.TranscodeRunsTotal.WithLabelValues("normalize", "success").Inc()

		os.Remove(path)
		if err := os.Rename(tmpPath, normalizedPath); err != nil {
			s.markFailed(id, err)
			return err
		}
		path = normalizedPath
		if err := s.mutate(func(snap *store.Snapshot) error {
			if rec := findVideo(snap, id); rec != nil {
				rec.Filename = normalized
			}
			return nil
		}); err != nil {
			s.markFailed(id, err)
			return err
		}

		if info, err = s.inspector.Video(path); err != nil {
			s.markFailed(id, fmt.Errorf("re-probing %s: %w", item.OriginalName, err))
			return err
		}
	}

	// Thumbnail failure is cosmetic, never fatal.
	thumbName := id + ".jpg"
	thumbPath := filepath.Join(s.paths.Thumbnails, thumbName)
	seek := transcoder.ThumbnailSeek(info.Duration)
	if err := s.encoder.Thumbnail(path, thumbPath, seek); err != nil {
		metrics.TranscodeRunsTotal.WithLabelValues("thumbnail", "error").Inc()
		logging.Warn("Could not generate thumbnail for %s: %v", item.OriginalName, err)
		thumbName = ""
	} else {
		metrics.TranscodeRunsTotal.WithLabelValues("thumbnail", "success").Inc()
	}

	hlsDir := filepath.Join(s.paths.HLS, id)
	if err := s.encoder.BuildAdaptivePackage(path, hlsDir, info.Height); err != nil {
		metrics.TranscodeRunsTotal.WithLabelValues("package", "error").Inc()
		os.RemoveAll(hlsDir)
		s.markFailed(id, err)
		return err
	}
	metrics.TranscodeRunsTotal.WithLabelValues("package", "success").Inc()
	for _, r := range transcoder.SelectRenditions(info.Height) {
		metrics.TranscodeRenditionsTotal.WithLabelValues(r.Name).Inc()
	}

	finalInfo := *info
	err = s.mutate(func(snap *store.Snapshot) error {
		rec := findVideo(snap, id)
		if rec == nil {
			return fmt.Errorf("video %s disappeared during processing", id)
		}
		rec.Duration = finalInfo.Duration
		rec.Width = finalInfo.Width
		rec.Height = finalInfo.Height
		rec.Codec = finalInfo.Codec
		rec.AudioCodec = finalInfo.AudioCodec
		if thumbName != "" {
			rec.Thumbnail = thumbName
		}
		rec.HLSManifest = filepath.Join(id, transcoder.MasterManifestName)
		return nil
	})
	if err != nil {
		s.markFailed(id, err)
		return err
	}

	s.setProcessing(id, false)
	logging.Info("Finished processing %s (%s)", item.OriginalName, id)
	return nil
}

// needsNormalization reports whether the stored file must be re-encoded
// before it can be served for direct playback.
func needsNormalization(filename string, info *probe.VideoInfo) bool {
	if strings.ToLower(filepath.Ext(filename)) != ".mp4" {
		return true
	}
	if info.Codec != "h264" {
		return true
	}
	if info.AudioCodec != "" && info.AudioCodec != "aac" {
		return true
	}
	return false
}

func (s *Service) setProcessing(id string, on bool) {
	s.mu.Lock()
	if on {
		s.processing[id] = true
		delete(s.failed, id)
	} else {
		delete(s.processing, id)
	}
	s.mu.Unlock()
}

func (s *Service) markFailed(id string, cause error) {
	logging.Error("Processing %s failed: %v", id, cause)
	s.mu.Lock()
	delete(s.processing, id)
	s.failed[id] = true
	s.mu.Unlock()
}

func (s *Service) removeRecord(id string) error {
	return s.mutate(func(snap *store.Snapshot) error {
		for i, item := range snap.Videos {
			if item.ID == id {
				snap.Videos = append(snap.Videos[:i], snap.Videos[i+1:]...)
				break
			}
		}
		snap.Playlist = prunePlaylist(snap.Playlist, id)
		return nil
	})
}

func findVideo(snap *store.Snapshot, id string) *store.MediaItem {
	for i := range snap.Videos {
		if snap.Videos[i].ID == id {
			return &snap.Videos[i]
		}
	}
	return nil
}

func prunePlaylist(entries []store.PlaylistEntry, id string) []store.PlaylistEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

func titleFromFilename(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func saveFile(path string, src io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return written, nil
}
