// Package queue schedules transcode jobs with a bounded pending backlog
// and bounded concurrency. Admission control rejects work beyond capacity
// so an upload burst cannot grow the backlog without limit, and cycle
// tracking exposes batch progress for the health endpoint.
package queue
