package dedupe

import (
	"sync"
	"time"
)

type claim struct {
	key string
	at  time.Time
}

// ReplayGuard remembers recently handled digest job IDs so a redelivered
// message is answered once. Entries expire after ttl and the oldest are
// evicted beyond capacity.
type ReplayGuard struct {
	mu       sync.Mutex
	claims   map[string]time.Time
	order    []claim
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewReplayGuard creates a guard with the provided capacity and ttl.
func NewReplayGuard(capacity int, ttl time.Duration) *ReplayGuard {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReplayGuard{
		claims:   make(map[string]time.Time, capacity),
		order:    make([]claim, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Claim records key and reports true when it was not already claimed inside
// the ttl window. Check and record happen under one lock, so concurrent
// consumers of the same job see exactly one successful claim.
func (g *ReplayGuard) Claim(key string) bool {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if at, ok := g.claims[key]; ok && now.Sub(at) <= g.ttl {
		return false
	}
	g.claims[key] = now
	g.order = append(g.order, claim{key: key, at: now})
	g.compact(now)
	return true
}

// Release forgets key so a job whose processing failed can be retried.
func (g *ReplayGuard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claims, key)
}

// Len returns the number of live claims.
func (g *ReplayGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.claims)
}

func (g *ReplayGuard) compact(now time.Time) {
	cutoff := now.Add(-g.ttl)

	for len(g.order) > 0 && (len(g.claims) > g.capacity || g.order[0].at.Before(cutoff)) {
		oldest := g.order[0]
		g.order = g.order[1:]

		if at, ok := g.claims[oldest.key]; ok && at.Equal(oldest.at) {
			delete(g.claims, oldest.key)
		}
	}
}
