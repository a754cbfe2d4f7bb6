package ratelimit

import "time"

// Limiter caps the number of bytes a single connection's reads may consume
// per second. It refills continuously based on elapsed wall-clock time
// rather than on a fixed tick, so a connection that has been idle for a
// while is immediately allowed everything accrued over that whole interval,
// capped only by the size of the request. Any accrued surplus beyond the
// request is discarded when a grant is made.
//
// A Limiter is used by exactly one goroutine (the owning Conn's Serve
// loop) and has no internal locking.
type Limiter struct {
	bitsPerSec int // 0 means unlimited
	lastRefill time.Time
}

// New returns a Limiter enforcing bitsPerSec bits per second. A value of 0
// or less disables the cap: Allow always grants the full request.
func New(bitsPerSec int) *Limiter {
	return &Limiter{bitsPerSec: bitsPerSec, lastRefill: time.Now()}
}

// Allow returns how many of the next up-to-want bytes the connection may
// read right now. If the budget is currently exhausted, n is 0 and wait is
// how long the caller should pause before asking again.
func (l *Limiter) Allow(want int) (n int, wait time.Duration) {
	if l == nil || l.bitsPerSec <= 0 {
		return want, 0
	}

	elapsed := time.Since(l.lastRefill)
	allowed := int(elapsed.Seconds() * (float64(l.bitsPerSec) / 8))
	if allowed <= 0 {
		return 0, time.Duration(8_000_000_000 / int64(l.bitsPerSec))
	}
	if allowed > want {
		allowed = want
	}
	l.lastRefill = time.Now()
	return allowed, 0
}
