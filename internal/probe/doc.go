// Package probe extracts structural metadata (duration, dimensions,
// codecs) from media files using ffprobe's JSON output.
package probe
