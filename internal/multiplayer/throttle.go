package multiplayer

import "time"

// DefaultSnapshotInterval is the reference rate for publishing local state.
const DefaultSnapshotInterval = 500 * time.Millisecond

// Throttle limits how often the host publishes snapshots.
// It is driven from the host's tick loop and is not safe for concurrent use.
type Throttle struct {
	interval time.Duration
	last     time.Time
	primed   bool
}

// NewThrottle creates a throttle. Non-positive intervals use DefaultSnapshotInterval.
func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = DefaultSnapshotInterval
	}
	return &Throttle{interval: interval}
}

// Ready reports whether a snapshot may be sent at now, and if so records it.
func (t *Throttle) Ready(now time.Time) bool {
	if t.primed && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	t.primed = true
	return true
}

// Reset makes the next Ready call succeed.
func (t *Throttle) Reset() {
	t.primed = false
}

// Interval returns the configured interval.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}
