// Package player is the display client's playback state machine. It
// drives an abstract Surface through the server playlist: videos on
// adaptive streams with stall detection and retry, timed still images,
// rotating photo collages with background audio, periodic playlist
// refresh, and heartbeat telemetry. An injected Clock makes every
// scheduled behavior deterministic under test.
package player
