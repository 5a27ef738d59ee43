// Package api is the display client's view of the signage server HTTP
// API: playlist fetch, heartbeat, and playback event reporting.
package api
