package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func allowN(rl *KeyedRateLimiter, key string, n int) int {
	passed := 0
	for range n {
		if rl.Allow(key) {
			passed++
		}
	}
	return passed
}

func TestKeyedRateLimiter_BurstPerKey(t *testing.T) {
	tests := []struct {
		name  string
		burst int
		calls int
		want  int
	}{
		{"within burst", 3, 3, 3},
		{"past burst", 2, 5, 2},
		{"single token", 1, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(1, tt.burst)
			defer rl.Stop()

			if got := allowN(rl, "203.0.113.7", tt.calls); got != tt.want {
				t.Errorf("allowed %d of %d, want %d", got, tt.calls, tt.want)
			}
		})
	}
}

func TestKeyedRateLimiter_ClientsDoNotShareBuckets(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	if !rl.Allow("198.51.100.1") || rl.Allow("198.51.100.1") {
		t.Fatal("first client should get exactly one request")
	}
	if !rl.Allow("198.51.100.2") {
		t.Error("second client should not be throttled by the first")
	}
	if rl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", rl.Len())
	}
}

func TestKeyedRateLimiter_WaitRefills(t *testing.T) {
	rl := New(20, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rl.Wait(ctx, "k"); err != nil {
		t.Fatalf("first Wait() = %v", err)
	}
	start := time.Now()
	if err := rl.Wait(ctx, "k"); err != nil {
		t.Fatalf("second Wait() = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("second Wait() returned after %v, want roughly 50ms", elapsed)
	}
}

func TestKeyedRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := New(0.1, 1)
	defer rl.Stop()
	rl.Allow("k")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx, "k")
	if err == nil {
		t.Fatal("Wait() should fail before a token is due")
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("Wait() = %v, want a deadline error", err)
	}
}

func TestKeyedRateLimiter_EvictsIdleKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	clock := time.Now()
	rl.now = func() time.Time { return clock }

	rl.Allow("idle")
	clock = clock.Add(DefaultIdleTTL + time.Second)
	rl.Allow("active")

	if n := rl.evictIdle(); n != 1 {
		t.Errorf("evictIdle() = %d, want 1", n)
	}
	if !rl.Allow("idle") {
		t.Error("an evicted key starts over with a full bucket")
	}
}

func TestPerMinute(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{5, 5},
		{0, 1},
		{-3, 1},
	}
	for _, tt := range tests {
		rl := PerMinute(tt.n)
		if got := allowN(rl, "ip", 10); got != tt.want {
			t.Errorf("PerMinute(%d) allowed %d, want %d", tt.n, got, tt.want)
		}
		rl.Stop()
	}
}
