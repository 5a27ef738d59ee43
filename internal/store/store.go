package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"signage/internal/logging"
)

// Store persists the library snapshot as a single JSON document. Writes
// go to a temp file in the same directory and are renamed into place, so
// a crash mid-write never leaves a truncated document. A mutex serializes
// writers.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a Store backed by the given file path. The parent directory
// must exist.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Read loads the snapshot from disk. A missing file yields an empty
// snapshot with default settings rather than an error, so first boot
// needs no seeding step.
func (s *Store) Read() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("Library file %s not found, starting empty", s.path)
			return NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading library: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing library: %w", err)
	}

	// Normalize nil slices so callers and the JSON output never see null.
	if snap.Videos == nil {
		snap.Videos = []MediaItem{}
	}
	if snap.PhotoGroups == nil {
		snap.PhotoGroups = []PhotoGroup{}
	}
	if snap.Playlist == nil {
		snap.Playlist = []PlaylistEntry{}
	}
	if snap.Settings == (Settings{}) {
		snap.Settings = DefaultSettings()
	}
	return &snap, nil
}

// Write atomically replaces the snapshot on disk.
func (s *Store) Write(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding library: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".library-*.json")
	if err != nil {
		return fmt.Errorf("creating temp library file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing library: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing library: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp library file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing library: %w", err)
	}
	return nil
}
