package render

import "time"

// Timer is the controllable handle behind a scheduled debounce firing.
type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

// Clock schedules deferred work. The scheduler takes it as an interface so
// tests can drive the debounce deterministically without real timers.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock returns the wall-clock implementation.
func SystemClock() Clock { return realClock{} }
