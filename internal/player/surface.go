package player

import "errors"

// ErrAutoplayRejected is returned by Surface.Play when the runtime
// refuses to start unmuted playback without user interaction.
var ErrAutoplayRejected = errors.New("autoplay rejected")

// ReadyState mirrors the media element readiness ladder.
type ReadyState int

const (
	ReadyNothing ReadyState = iota
	ReadyMetadata
	ReadyCurrentData
	ReadyFutureData
	ReadyEnoughData
)

// VideoEvents are the callbacks a surface invokes for the video it was
// most recently asked to load. The engine binds them to the load
// attempt, so callbacks from an element that has since been replaced
// are no-ops.
type VideoEvents struct {
	// Ended fires on natural end of playback.
	Ended func()
	// Error fires on an unrecoverable element error.
	Error func(err error)
	// Progress fires whenever the element makes data progress; it feeds
	// the stall guard.
	Progress func()
	// FatalStreamError fires when adaptive delivery fails beyond
	// recovery. The engine demotes to the progressive source.
	FatalStreamError func(err error)
}

// Surface is the abstract display the engine drives. Implementations
// wrap whatever renders on the physical screen; the engine only issues
// commands and reads position and readiness back.
type Surface interface {
	// LoadVideo points the media element at a new source and resets it.
	// The events stay wired until the next LoadVideo call.
	LoadVideo(url string, events VideoEvents) error
	// Play starts playback. It reports ErrAutoplayRejected when unmuted
	// autoplay is blocked by the runtime.
	Play(muted bool) error
	Pause()
	Seek(position float64)
	SetMuted(muted bool)
	Muted() bool
	Paused() bool
	Position() float64
	ReadyState() ReadyState

	ShowImage(url string)
	// ShowCollage renders a window of photo URLs side by side.
	ShowCollage(urls []string)
	ShowUnmutePrompt(visible bool)

	// PlayAudio starts the looping background track for photo groups.
	PlayAudio(url string, muted bool) error
	StopAudio()
	SetAudioMuted(muted bool)
}
