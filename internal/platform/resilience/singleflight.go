package resilience

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SingleFlight deduplicates concurrent calls for the same key. Callers that
// arrive while a call is in flight wait for it and receive its result.
type SingleFlight struct {
	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Do runs fn once per key at a time. shared reports whether the result was
// handed to more than one caller. A panic in fn is returned as an error to
// every caller instead of leaving waiters blocked.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (v any, err error, shared bool) {
	return g.group.Do(key, func() (v any, err error) {
		g.track(key, true)
		defer g.track(key, false)
		defer func() {
			if rec := recover(); rec != nil {
				v, err = nil, fmt.Errorf("singleflight call panicked: %v", rec)
			}
		}()
		return fn()
	})
}

// InFlight reports whether a call for key is currently running.
func (g *SingleFlight) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.inflight[key]
	return ok
}

func (g *SingleFlight) track(key string, running bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !running {
		delete(g.inflight, key)
		return
	}
	if g.inflight == nil {
		g.inflight = make(map[string]struct{})
	}
	g.inflight[key] = struct{}{}
}
