package storage

import "time"

// CancelFunc cancels a scheduled callback. It reports whether the callback
// was stopped before it ran.
type CancelFunc func() bool

// Scheduler schedules a callback after a delay. The coalescer depends on
// this abstraction instead of ambient timers so tests can drive debouncing
// with a deterministic fake clock.
type Scheduler interface {
	ScheduleAfter(d time.Duration, fn func()) CancelFunc
}

// TimerScheduler is the production Scheduler backed by time.AfterFunc.
type TimerScheduler struct{}

// ScheduleAfter runs fn on its own goroutine after d elapses.
func (TimerScheduler) ScheduleAfter(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
