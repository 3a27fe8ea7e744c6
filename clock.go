package timedex

import "time"

// Clock supplies the host's notion of current time. It is assumed
// monotonically non-decreasing across calls on one node, but never
// assumed identical across nodes: validators replaying an old chunk
// check it against their own clock, which is at or after the original
// author's, so the not-in-the-future rule holds monotonically.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
func SystemClock() Clock {
	return ClockFunc(func() time.Time { return time.Now().UTC() })
}
