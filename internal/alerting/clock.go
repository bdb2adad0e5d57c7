package alerting

import "time"

// Clock supplies the current time. The scheduler never calls time.Now
// directly so tests can drive cycles in minute steps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// NewRealClock returns a Clock backed by the system clock
func NewRealClock() Clock {
	return realClock{}
}

// delayUntilBoundary returns how long to wait so the first poll lands on
// the next interval boundary of the wall clock. With the default 60s
// interval every poll aligns to a minute boundary, which the threshold
// windows depend on for a single hit per threshold.
func delayUntilBoundary(now time.Time, interval time.Duration) time.Duration {
	intervalMs := interval.Milliseconds()
	if intervalMs <= 0 {
		return 0
	}

	elapsed := now.UnixMilli() % intervalMs
	if elapsed == 0 {
		return 0
	}
	return time.Duration(intervalMs-elapsed) * time.Millisecond
}
