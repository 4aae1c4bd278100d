package syncer

import "time"

// Scheduler abstracts delayed execution so the debounce window can be
// simulated deterministically in tests instead of sleeping real time.
type Scheduler interface {
	// Schedule runs fn after d. The returned cancel function stops the
	// pending run and reports whether it was stopped before firing.
	Schedule(d time.Duration, fn func()) (cancel func() bool)
}

// TimerScheduler is the production Scheduler backed by time.AfterFunc.
type TimerScheduler struct{}

// Schedule implements Scheduler.
func (TimerScheduler) Schedule(d time.Duration, fn func()) func() bool {
	timer := time.AfterFunc(d, fn)
	return timer.Stop
}
