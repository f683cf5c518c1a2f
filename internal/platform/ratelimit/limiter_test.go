package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiter_PerKeyBuckets(t *testing.T) {
	t.Parallel()

	l := NewLimiter(0, 1)
	l.SetRate("bref", 0.1, 1)

	if !l.Allow("bref") {
		t.Fatalf("expected first bref request to pass the burst")
	}
	if l.Allow("bref") {
		t.Fatalf("expected second bref request to be throttled")
	}
	for i := 0; i < 50; i++ {
		if !l.Allow("statcast") {
			t.Fatalf("expected unlimited default rate for statcast")
		}
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	t.Parallel()

	l := NewLimiter(0.01, 1)
	if err := l.Wait(context.Background(), "fangraphs"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "fangraphs"); err == nil {
		t.Fatalf("expected wait beyond deadline to fail")
	} else if errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected cancellation error: %v", err)
	}
}

func TestLimiter_SlowDownNeverRaises(t *testing.T) {
	t.Parallel()

	l := NewLimiter(0, 1)
	l.SetRate("bref", 0.5, 1)

	l.SlowDown("bref", 2)
	if got := l.Rate("bref"); got != rate.Limit(0.5) {
		t.Fatalf("expected rate to stay 0.5, got=%v", got)
	}

	l.SlowDown("bref", 0.25)
	if got := l.Rate("bref"); got != rate.Limit(0.25) {
		t.Fatalf("expected rate lowered to 0.25, got=%v", got)
	}
}

func TestLimiter_Throttle(t *testing.T) {
	t.Parallel()

	l := NewLimiter(0, 1)
	if got := l.Throttle("statcast", 0); got != throttledRate {
		t.Fatalf("expected unlimited key to drop to %v, got=%v", throttledRate, got)
	}
	if got := l.Throttle("statcast", 0); got != throttledRate/2 {
		t.Fatalf("expected rate halved, got=%v", got)
	}
	if got := l.Throttle("statcast", 10*time.Second); got != 0.1 {
		t.Fatalf("expected retry-after cap of 0.1, got=%v", got)
	}
	if got := l.Throttle("statcast", time.Hour); got != minRate {
		t.Fatalf("expected floor %v, got=%v", minRate, got)
	}
}
