package ingest

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter throttles outbound feed requests per upstream host so a
// source list with many entries on one host does not hammer it.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

func NewHostLimiter(interval time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Wait blocks until the host behind rawURL may be contacted again or
// ctx is cancelled.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid source url %q", rawURL)
	}

	h.mu.Lock()
	limiter, ok := h.limiters[parsed.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(h.interval), 1)
		h.limiters[parsed.Host] = limiter
	}
	h.mu.Unlock()

	return limiter.Wait(ctx)
}
