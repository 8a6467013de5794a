// Package clock implements the frame pacemaker: monotonic tick streams used
// to drive the video compositor and audio mixer at fixed rates. Each tick's
// deadline is computed from the session start time plus the tick index,
// never from the previous tick's actual wake time, so drift never
// accumulates across ticks.
package clock

import (
	"time"
)

// Clock produces evenly spaced ticks anchored to a fixed start time.
type Clock struct {
	start    time.Time
	interval time.Duration
	stopCh   chan struct{}
	stopped  bool
}

// New creates a Clock ticking at interval, starting now.
func New(interval time.Duration) *Clock {
	return &Clock{
		start:    time.Now(),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// NewVideoClock returns a Clock ticking at the compositor's target frame
// rate.
func NewVideoClock(tickRateHz float64) *Clock {
	return New(time.Duration(float64(time.Second) / tickRateHz))
}

// NewAudioClock returns a Clock ticking every 20ms, matching 960 samples at
// 48kHz.
func NewAudioClock() *Clock {
	return New(20 * time.Millisecond)
}

// Next blocks until the n-th tick's deadline (n starting at 1) and returns
// the tick index. It returns ok=false if the clock was stopped first.
func (c *Clock) Next(n int64) (idx int64, ok bool) {
	deadline := c.start.Add(time.Duration(n) * c.interval)
	d := time.Until(deadline)
	if d <= 0 {
		select {
		case <-c.stopCh:
			return 0, false
		default:
			return n, true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return n, true
	case <-c.stopCh:
		return 0, false
	}
}

// Run streams ticks starting at 1 to fn until Stop is called or fn returns
// false. This is a pull-based pacemaker loop: the caller decides when to
// render, the clock only decides when to wake.
func (c *Clock) Run(fn func(tick int64) bool) {
	for n := int64(1); ; n++ {
		idx, ok := c.Next(n)
		if !ok {
			return
		}
		if !fn(idx) {
			return
		}
	}
}

// Stop permanently unblocks any in-flight or future Next call.
func (c *Clock) Stop() {
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stopCh)
}

// StartedAt returns the clock's anchor time, useful for timestamping
// frames against the same monotonic session clock.
func (c *Clock) StartedAt() time.Time {
	return c.start
}
