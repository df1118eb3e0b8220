package catalog

import (
	"sync"
	"time"
)

// rateLimiter spaces outgoing ERP calls so scroll pagination stays under
// the account's request quota. Callers block in WaitTurn until their slot.
type rateLimiter struct {
	mu       sync.Mutex
	nextSlot time.Time
	step     time.Duration
}

func newRateLimiter(requestsPerSecond int) *rateLimiter {
	rps := requestsPerSecond
	if rps < 1 {
		rps = 1
	}
	return &rateLimiter{step: time.Second / time.Duration(rps)}
}

func (r *rateLimiter) WaitTurn() {
	r.mu.Lock()
	slot := time.Now()
	if slot.Before(r.nextSlot) {
		slot = r.nextSlot
	}
	r.nextSlot = slot.Add(r.step)
	r.mu.Unlock()

	time.Sleep(time.Until(slot))
}
