// Package library is the service layer over the persisted snapshot: media
// ingest and the transcode pipeline, playlist assembly, photo groups,
// display settings, playback stats, and startup reconciliation of missing
// adaptive packages.
package library
