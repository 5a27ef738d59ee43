package mediatypes

import (
	"path/filepath"
	"strings"
)

// Kind represents the playback kind of a library item.
type Kind string

const (
	// KindVideo represents a video item.
	KindVideo Kind = "video"
	// KindImage represents a still image item.
	KindImage Kind = "image"
	// KindPhotoGroup represents a timed photo collage.
	KindPhotoGroup Kind = "photoGroup"
	// KindOther represents an unsupported file type.
	KindOther Kind = "other"
)

// VideoExtensions maps file extensions to whether they are accepted video uploads.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mkv":  true,
}

// ImageExtensions maps file extensions to whether they are accepted image uploads.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// AudioExtensions maps file extensions to whether they are accepted as
// background audio uploads.
var AudioExtensions = map[string]bool{
	".mp3": true,
	".m4a": true,
	".aac": true,
	".ogg": true,
	".wav": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Videos
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",

	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",

	// Audio
	".mp3": "audio/mpeg",
	".m4a": "audio/mp4",
	".aac": "audio/aac",
	".ogg": "audio/ogg",
	".wav": "audio/wav",

	// Streaming artifacts
	".m3u8": "application/vnd.apple.mpegurl",
	".ts":   "video/mp2t",
}

// KindForFilename returns the Kind inferred from a filename's extension.
// Returns KindOther if the extension is not an accepted upload type.
func KindForFilename(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	if ImageExtensions[ext] {
		return KindImage
	}
	if VideoExtensions[ext] {
		return KindVideo
	}
	return KindOther
}

// IsSupportedUpload returns true if the filename has an accepted video or
// image extension.
func IsSupportedUpload(name string) bool {
	return KindForFilename(name) != KindOther
}

// IsImage returns true if the filename has an accepted image extension.
func IsImage(name string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsAudio returns true if the filename has an accepted audio extension.
func IsAudio(name string) bool {
	return AudioExtensions[strings.ToLower(filepath.Ext(name))]
}

// GetMimeType returns the MIME type for a filename. Video files default to
// video/mp4 and image files to image/jpeg when the extension is unknown,
// matching what the streaming endpoints serve.
func GetMimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
