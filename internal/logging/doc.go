// Package logging provides leveled, structured logging for the signage
// server and display client. Output is JSON by default (LOG_FORMAT=console
// switches to a human-readable form) and the level is controlled with
// LOG_LEVEL or DEBUG=true.
package logging
