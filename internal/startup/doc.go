// Package startup handles application initialization: environment-driven
// configuration, directory setup, ffmpeg availability checks, and the
// structured startup and shutdown log output.
package startup
