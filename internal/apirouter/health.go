package apirouter

import (
	"sync"
	"time"
)

// health tracks consecutive primary failures
type health struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	failures  int
	downUntil time.Time
	now       func() time.Time
}

func newHealth(threshold int, cooldown time.Duration) *health {
	return &health{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

func (h *health) healthy() bool {
	if h.threshold <= 0 {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.now().Before(h.downUntil)
}

func (h *health) failure() {
	if h.threshold <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures++
	if h.failures >= h.threshold {
		h.downUntil = h.now().Add(h.cooldown)
		h.failures = 0
	}
}

func (h *health) success() {
	if h.threshold <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = 0
	h.downUntil = time.Time{}
}
