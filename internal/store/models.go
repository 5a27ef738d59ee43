package store

import "time"

// Media item kinds.
const (
	KindVideo = "video"
	KindImage = "image"
)

// Playlist entry types.
const (
	EntryMedia      = "media"
	EntryPhotoGroup = "photoGroup"
)

// MediaItem is a single video or image in the library.
type MediaItem struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Kind         string  `json:"kind"`
	Filename     string  `json:"filename"`
	OriginalName string  `json:"originalName"`
	Duration     float64 `json:"duration,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	Codec        string  `json:"codec,omitempty"`
	AudioCodec   string  `json:"audioCodec,omitempty"`
	Thumbnail    string  `json:"thumbnail,omitempty"`
	// HLSManifest is the relative path to the adaptive master manifest,
	// empty until packaging completes.
	HLSManifest string `json:"hlsManifest,omitempty"`
	// DisplayDuration is how long images stay on screen, in seconds.
	// Unused for videos.
	DisplayDuration float64   `json:"displayDuration,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Photo is one member of a photo group.
type Photo struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PhotoGroup is a rotating collage of photos shown as one playlist item.
type PhotoGroup struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Footer          string    `json:"footer,omitempty"`
	Photos          []Photo   `json:"photos"`
	DisplayDuration float64   `json:"displayDuration"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PlaylistEntry references a media item or photo group by id.
type PlaylistEntry struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Settings holds display defaults and the optional background audio track
// for photo groups.
type Settings struct {
	ImageDefaultDuration float64 `json:"imageDefaultDuration"`
	PhotoGroupDuration   float64 `json:"photoGroupDuration"`
	PhotoAudio           string  `json:"photoAudio,omitempty"`
}

// ErrorRecord is one playback error reported by the display client.
type ErrorRecord struct {
	Message string    `json:"message"`
	ItemID  string    `json:"itemId,omitempty"`
	At      time.Time `json:"at"`
}

// Stats accumulates playback counters and the rolling error window.
type Stats struct {
	VideosPlayed int64         `json:"videosPlayed"`
	RecentErrors []ErrorRecord `json:"recentErrors,omitempty"`
	LastError    *ErrorRecord  `json:"lastError,omitempty"`
	LastRestart  time.Time     `json:"lastRestart,omitzero"`
}

// Snapshot is the complete persisted library state.
type Snapshot struct {
	Videos      []MediaItem     `json:"videos"`
	PhotoGroups []PhotoGroup    `json:"photoGroups"`
	Playlist    []PlaylistEntry `json:"playlist"`
	Settings    Settings        `json:"settings"`
	Stats       Stats           `json:"stats"`
}

// DefaultSettings returns the out-of-box display settings.
func DefaultSettings() Settings {
	return Settings{
		ImageDefaultDuration: 15,
		PhotoGroupDuration:   30,
	}
}

// NewSnapshot returns an empty library with default settings.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Videos:      []MediaItem{},
		PhotoGroups: []PhotoGroup{},
		Playlist:    []PlaylistEntry{},
		Settings:    DefaultSettings(),
	}
}
