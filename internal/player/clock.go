package player

import "time"

// Timer is a cancelable scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so the engine can run against a fake in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock returns a Clock backed by the system clock.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
