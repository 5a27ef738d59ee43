package player

import "time"

// Playback timer names. Every item transition clears all of them in one
// place, which is what keeps stale continuations from firing across
// items.
const (
	timerStall      = "stall"
	timerImage      = "image"
	timerCollage    = "collage"
	timerRetry      = "retry"
	timerAudioRetry = "audioRetry"
)

// timerRegistry holds the named playback timers. It is not safe for
// concurrent use; the engine mutex guards it.
type timerRegistry struct {
	clock  Clock
	timers map[string]Timer
}

func newTimerRegistry(clock Clock) *timerRegistry {
	return &timerRegistry{clock: clock, timers: make(map[string]Timer)}
}

// set schedules fn under name, replacing any timer already registered
// there.
func (r *timerRegistry) set(name string, d time.Duration, fn func()) {
	r.clear(name)
	r.timers[name] = r.clock.AfterFunc(d, fn)
}

func (r *timerRegistry) clear(name string) {
	if t, ok := r.timers[name]; ok {
		t.Stop()
		delete(r.timers, name)
	}
}

// clearAll cancels every playback timer. Called once per transition.
func (r *timerRegistry) clearAll() {
	for name, t := range r.timers {
		t.Stop()
		delete(r.timers, name)
	}
}
