package library

import (
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
	"signage/internal/store"
)

// Duration bounds, in seconds.
const (
	MinImageDuration = 3
	MaxImageDuration = 300
	MinGroupDuration = 5
	MaxGroupDuration = 300
)

// ClampImageDuration bounds an image display duration.
func ClampImageDuration(v float64) float64 {
	return clamp(v, MinImageDuration, MaxImageDuration)
}

// ClampGroupDuration bounds a photo group display duration.
func ClampGroupDuration(v float64) float64 {
	return clamp(v, MinGroupDuration, MaxGroupDuration)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func findGroup(snap *store.Snapshot, id string) *store.PhotoGroup {
	for i := range snap.PhotoGroups {
		if snap.PhotoGroups[i].ID == id {
			return &snap.PhotoGroups[i]
		}
	}
	return nil
}

// PhotoGroups lists all photo groups.
func (s *Service) PhotoGroups() ([]store.PhotoGroup, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.PhotoGroups, nil
}

// GetPhotoGroup returns one photo group by id.
func (s *Service) GetPhotoGroup(id string) (*store.PhotoGroup, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if g := findGroup(snap, id); g != nil {
		group := *g
		return &group, nil
	}
	return nil, ErrNotFound
}

// CreatePhotoGroup adds an empty photo group. A non-positive duration
// falls back to the configured default.
func (s *Service) CreatePhotoGroup(title, footer string, displayDuration float64) (*store.PhotoGroup, error) {
	group := store.PhotoGroup{
		ID:        uuid.NewString(),
		Title:     title,
		Footer:    footer,
		Photos:    []store.Photo{},
		CreatedAt: time.Now(),
	}
	err := s.mutate(func(snap *store.Snapshot) error {
		if displayDuration > 0 {
			group.DisplayDuration = ClampGroupDuration(displayDuration)
		} else {
			group.DisplayDuration = snap.Settings.PhotoGroupDuration
		}
		snap.PhotoGroups = append(snap.PhotoGroups, group)
		snap.Playlist = append(snap.Playlist, store.PlaylistEntry{Type: store.EntryPhotoGroup, ID: group.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// PhotoGroupUpdate carries the mutable fields of a photo group. Nil
// fields are left unchanged.
type PhotoGroupUpdate struct {
	Title           *string  `json:"title"`
	Footer          *string  `json:"footer"`
	DisplayDuration *float64 `json:"displayDuration"`
}

// UpdatePhotoGroup applies a partial update to a photo group.
func (s *Service) UpdatePhotoGroup(id string, update PhotoGroupUpdate) (*store.PhotoGroup, error) {
	var result store.PhotoGroup
	err := s.mutate(func(snap *store.Snapshot) error {
		g := findGroup(snap, id)
		if g == nil {
			return ErrNotFound
		}
		if update.Title != nil {
			g.Title = *update.Title
		}
		if update.Footer != nil {
			g.Footer = *update.Footer
		}
		if update.DisplayDuration != nil {
			g.DisplayDuration = ClampGroupDuration(*update.DisplayDuration)
		}
		result = *g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeletePhotoGroup removes a group, its playlist entries, and its photo
// files.
func (s *Service) DeletePhotoGroup(id string) error {
	var removed *store.PhotoGroup
	err := s.mutate(func(snap *store.Snapshot) error {
		for i := range snap.PhotoGroups {
			if snap.PhotoGroups[i].ID == id {
				group := snap.PhotoGroups[i]
				removed = &group
				snap.PhotoGroups = append(snap.PhotoGroups[:i], snap.PhotoGroups[i+1:]...)
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

	for _, photo := range removed.Photos {
		os.Remove(filepath.Join(s.paths.Uploads, photo.Filename))
		os.Remove(filepath.Join(s.paths.Thumbnails, photo.ID+".jpg"))
	}
	logging.Info("Deleted photo group %s (%s)", removed.Title, id)
	return nil
}

// AddPhoto stores an uploaded photo and appends it to the group.
func (s *Service) AddPhoto(groupID, originalName string, src io.Reader) (*store.Photo, error) {
	if !mediatypes.IsImage(originalName) {
		return nil, ErrUnsupportedType
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	photo := store.Photo{
		ID:           uuid.NewString(),
		OriginalName: originalName,
		CreatedAt:    time.Now(),
	}
	photo.Filename = photo.ID + ext

	path := filepath.Join(s.paths.Uploads, photo.Filename)
	if _, err := saveFile(path, src); err != nil {
		return nil, fmt.Errorf("storing photo: %w", err)
	}

	if w, h, err := media.Dimensions(path); err != nil {
		logging.Warn("Could not read dimensions of %s: %v", originalName, err)
	} else {
		photo.Width = w
		photo.Height = h
	}

	thumbPath := filepath.Join(s.paths.Thumbnails, photo.ID+".jpg")
	if err := media.Thumbnail(path, thumbPath, media.DefaultThumbnailSize); err != nil {
		logging.Warn("Could not generate thumbnail for %s: %v", originalName, err)
	}

	err := s.mutate(func(snap *store.Snapshot) error {
		g := findGroup(snap, groupID)
		if g == nil {
			return ErrNotFound
		}
		g.Photos = append(g.Photos, photo)
		return nil
	})
	if err != nil {
		os.Remove(path)
		os.Remove(thumbPath)
		return nil, err
	}
	return &photo, nil
}

// DeletePhoto removes one photo from a group along with its files.
func (s *Service) DeletePhoto(groupID, photoID string) error {
	var removed *store.Photo
	err := s.mutate(func(snap *store.Snapshot) error {
		g := findGroup(snap, groupID)
		if g == nil {
			return ErrNotFound
		}
		for i := range g.Photos {
			if g.Photos[i].ID == photoID {
				photo := g.Photos[i]
				removed = &photo
				g.Photos = append(g.Photos[:i], g.Photos[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return err
	}

	os.Remove(filepath.Join(s.paths.Uploads, removed.Filename))
	os.Remove(filepath.Join(s.paths.Thumbnails, removed.ID+".jpg"))
	return nil
}

// SetPhotoAudio stores a background audio track for photo groups,
// replacing any previous one.
func (s *Service) SetPhotoAudio(originalName string, src io.Reader) (string, error) {
	if !mediatypes.IsAudio(originalName) {
		return "", ErrUnsupportedType
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	filename := "audio-" + uuid.NewString() + ext
	path := filepath.Join(s.paths.Uploads, filename)
	if _, err := saveFile(path, src); err != nil {
		return "", fmt.Errorf("storing audio: %w", err)
	}

	var previous string
	err := s.mutate(func(snap *store.Snapshot) error {
		previous = snap.Settings.PhotoAudio
		snap.Settings.PhotoAudio = filename
		return nil
	})
	if err != nil {
		os.Remove(path)
		return "", err
	}

	if previous != "" {
		os.Remove(filepath.Join(s.paths.Uploads, previous))
	}
	return filename, nil
}

// ClearPhotoAudio removes the background audio track.
func (s *Service) ClearPhotoAudio() error {
	var previous string
	err := s.mutate(func(snap *store.Snapshot) error {
		previous = snap.Settings.PhotoAudio
		snap.Settings.PhotoAudio = ""
		return nil
	})
	if err != nil {
		return err
	}
	if previous != "" {
		os.Remove(filepath.Join(s.paths.Uploads, previous))
	}
	return nil
}
