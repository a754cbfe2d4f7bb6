package ratelimit

import (
	"testing"
	"time"
)

func TestDisabledLimiterAlwaysGrantsFull(t *testing.T) {
	l := New(0)
	n, wait := l.Allow(4096)
	if n != 4096 || wait != 0 {
		t.Fatalf("got (%d, %v), want (4096, 0)", n, wait)
	}
}

func TestNilLimiterAlwaysGrantsFull(t *testing.T) {
	var l *Limiter
	n, wait := l.Allow(4096)
	if n != 4096 || wait != 0 {
		t.Fatalf("got (%d, %v), want (4096, 0)", n, wait)
	}
}

func TestFreshLimiterExhaustsImmediatelyOnTinyBudget(t *testing.T) {
	// A budget this small (1 bit/s) cannot have accrued any bytes yet at
	// the instant of construction.
	l := New(1)
	n, wait := l.Allow(4096)
	if n != 0 {
		t.Fatalf("expected 0 bytes granted immediately, got %d", n)
	}
	if wait <= 0 {
		t.Fatalf("expected a positive wait duration, got %v", wait)
	}
}

func TestAllowCapsAtRequestedWant(t *testing.T) {
	l := New(1 << 30) // generous budget
	// Force an elapsed window by backdating lastRefill instead of sleeping.
	l.lastRefill = l.lastRefill.Add(-time.Second)
	n, wait := l.Allow(16)
	if n != 16 || wait != 0 {
		t.Fatalf("got (%d, %v), want (16, 0) — Allow must cap at want even with a huge budget", n, wait)
	}
}
