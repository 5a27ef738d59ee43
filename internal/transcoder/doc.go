// Package transcoder turns uploaded media into streamable assets: a
// normalized MP4 baseline, a multi-rendition adaptive HLS package with a
// master manifest, and extracted thumbnails. All encoding is delegated to
// ffmpeg via the process runner.
package transcoder
