package mediatypes

import "testing"

func TestKindForFilename(t *testing.T) {
	tests := []struct {
		filename string
		expected Kind
	}{
		{"clip.mp4", KindVideo},
		{"clip.MKV", KindVideo},
		{"clip.webm", KindVideo},
		{"photo.jpg", KindImage},
		{"photo.jpeg", KindImage},
		{"photo.PNG", KindImage},
		{"photo.webp", KindImage},
		{"animation.gif", KindImage},
		{"track.mp3", KindOther},
		{"document.txt", KindOther},
		{"noext", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := KindForFilename(tt.filename)
			if got != tt.expected {
				t.Errorf("KindForFilename(%s) = %s, want %s", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestIsSupportedUpload(t *testing.T) {
	if !IsSupportedUpload("video.mp4") {
		t.Error("Expected video.mp4 to be supported")
	}
	if !IsSupportedUpload("photo.webp") {
		t.Error("Expected photo.webp to be supported")
	}
	if IsSupportedUpload("track.flac") {
		t.Error("Expected track.flac to be unsupported")
	}
}

func TestIsAudio(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"song.mp3", true},
		{"song.m4a", true},
		{"song.wav", true},
		{"song.ogg", true},
		{"clip.mp4", false},
		{"photo.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IsAudio(tt.filename); got != tt.expected {
				t.Errorf("IsAudio(%s) = %v, want %v", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"clip.mp4", "video/mp4"},
		{"clip.webm", "video/webm"},
		{"clip.mkv", "video/x-matroska"},
		{"photo.png", "image/png"},
		{"manifest.m3u8", "application/vnd.apple.mpegurl"},
		{"segment_00001.ts", "video/mp2t"},
		{"unknown.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := GetMimeType(tt.filename); got != tt.expected {
				t.Errorf("GetMimeType(%s) = %s, want %s", tt.filename, got, tt.expected)
			}
		})
	}
}
