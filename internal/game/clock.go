package game

import "time"

// gravityClock accumulates time between Advance calls. The first sample after
// start or rebase only sets the reference point.
type gravityClock struct {
	running bool
	hasLast bool
	last    time.Time
	elapsed time.Duration
}

func (c *gravityClock) start() {
	c.running = true
	c.hasLast = false
	c.elapsed = 0
}

func (c *gravityClock) stop() {
	c.running = false
	c.hasLast = false
	c.elapsed = 0
}

// rebase drops the reference point but keeps the accumulated time.
func (c *gravityClock) rebase() {
	c.hasLast = false
}

// advance adds the time since the previous sample and reports whether the
// interval was exceeded, resetting the accumulator if so.
func (c *gravityClock) advance(now time.Time, interval time.Duration) bool {
	if !c.running {
		return false
	}
	if !c.hasLast {
		c.last = now
		c.hasLast = true
		return false
	}
	if d := now.Sub(c.last); d > 0 {
		c.elapsed += d
	}
	c.last = now
	if c.elapsed > interval {
		c.elapsed = 0
		return true
	}
	return false
}
