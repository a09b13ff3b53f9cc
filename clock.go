package sparks

import (
	"time"
)

// Clock measures frame time. Dt is clamped to MaxDt so a stall (debugger,
// window drag) does not turn into one huge simulation step.
type Clock struct {
	Time  time.Time
	Dt    time.Duration
	MaxDt time.Duration
	Frame uint64

	now func() time.Time
}

func NewClock(maxDt time.Duration) *Clock {
	c := &Clock{MaxDt: maxDt, now: time.Now}
	c.Time = c.now()
	return c
}

// Tick advances the clock to the current time and returns the clamped
// delta in seconds.
func (c *Clock) Tick() float32 {
	now := c.now()
	c.Dt = now.Sub(c.Time)
	c.Time = now
	if c.Dt < 0 {
		c.Dt = 0
	}
	if c.MaxDt > 0 && c.Dt > c.MaxDt {
		c.Dt = c.MaxDt
	}
	c.Frame++
	return float32(c.Dt.Seconds())
}
