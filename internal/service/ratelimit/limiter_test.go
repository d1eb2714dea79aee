package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesAndRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4", 3, 1) {
			t.Fatalf("request %d should pass", i)
		}
	}
	if l.Allow("1.2.3.4", 3, 1) {
		t.Fatalf("bucket should be empty")
	}
	if !l.Allow("5.6.7.8", 3, 1) {
		t.Fatalf("other keys have their own bucket")
	}
	now = now.Add(time.Second)
	if !l.Allow("1.2.3.4", 3, 1) {
		t.Fatalf("bucket should refill one token per second")
	}
}

func TestAllowDisabledWithZeroCapacity(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		if !l.Allow("k", 0, 0) {
			t.Fatalf("zero capacity disables limiting")
		}
	}
}

func TestPruneIdleBuckets(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.pruneAt = 2
	l.now = func() time.Time { return now }
	l.Allow("a", 1, 1)
	l.Allow("b", 1, 1)
	now = now.Add(time.Hour)
	l.Allow("c", 1, 1)
	if len(l.m) != 1 {
		t.Fatalf("buckets = %d, want 1", len(l.m))
	}
}
