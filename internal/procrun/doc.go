// Package procrun executes external media tools (ffmpeg, ffprobe) with
// bounded output capture and watchdog timeouts. A process that goes silent
// for longer than its idle timeout, or outlives its total timeout, is sent
// SIGTERM and then SIGKILL after a grace period.
package procrun
