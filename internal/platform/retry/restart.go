package retry

import "time"

// RestartPolicy bounds how often a long-running task may be restarted after
// it fails. It holds no timer; callers ask it for the next delay.
type RestartPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	// StableAfter is how long a run must last before the failure budget
	// is refilled. Zero disables the reset.
	StableAfter time.Duration
}

// Next reports the delay before restart number attempt (1-based), or false
// once the budget is exhausted.
func (p RestartPolicy) Next(attempt int) (time.Duration, bool) {
	if attempt < 1 || attempt > p.MaxAttempts {
		return 0, false
	}
	return p.Backoff, true
}

// Stable reports whether a run of the given length refills the budget.
func (p RestartPolicy) Stable(ran time.Duration) bool {
	return p.StableAfter > 0 && ran >= p.StableAfter
}
