// Package handlers implements the HTTP API: library management, uploads,
// playlist control, photo groups, settings, playback stats, player
// telemetry intake, and health reporting.
package handlers
