// Package store persists the library as a single JSON document with
// atomic temp-file-and-rename writes. It defines the persisted data
// model: media items, photo groups, the playlist order, display settings,
// and playback stats.
package store
