package resilience

import (
	"context"
	"math/rand/v2"
	"time"
)

// Delay returns the wait before the given retry (1-based). The delay doubles
// per retry up to MaxDelay, with up to 20% jitter subtracted so parallel
// callers do not retry in lockstep. A server hint (Retry-After) wins when it
// is longer.
func (p RetryPolicy) Delay(retry int, hint time.Duration) time.Duration {
	if retry < 1 {
		retry = 1
	}

	delay := p.BaseDelay
	for i := 1; i < retry && delay < p.MaxDelay; i++ {
		delay *= 2
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if jitter := int64(delay) / 5; jitter > 0 {
		delay -= time.Duration(rand.Int64N(jitter))
	}

	if hint > delay {
		if hint > p.MaxDelay*4 {
			hint = p.MaxDelay * 4
		}
		return hint
	}
	return delay
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
