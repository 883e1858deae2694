package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter manages per-client request rate limiting.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	requestsPerHour   int

	clients map[string]*clientUsage
}

// clientUsage tracks request counts for a single client/IP.
type clientUsage struct {
	requestsLastMinute int
	requestsLastHour   int
	lastRequestTime    time.Time
}

// NewRateLimiter creates a new rate limiter with the given limits.
// A limit of zero disables that window.
func NewRateLimiter(requestsPerMinute, requestsPerHour int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		clients:           make(map[string]*clientUsage),
	}
}

// CheckRateLimit checks if a request from the given client is allowed
// and records it if so.
func (rl *RateLimiter) CheckRateLimit(clientID string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	usage, exists := rl.clients[clientID]
	if !exists {
		usage = &clientUsage{lastRequestTime: now}
		rl.clients[clientID] = usage
	}

	rl.resetCountersIfNeeded(usage, now)

	if rl.requestsPerMinute > 0 && usage.requestsLastMinute >= rl.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      rl.requestsPerMinute,
			RetryAfter: time.Minute - now.Sub(usage.lastRequestTime),
		}
	}
	if rl.requestsPerHour > 0 && usage.requestsLastHour >= rl.requestsPerHour {
		return &RateLimitError{
			Type:       "hour",
			Limit:      rl.requestsPerHour,
			RetryAfter: time.Hour - now.Sub(usage.lastRequestTime),
		}
	}

	usage.requestsLastMinute++
	usage.requestsLastHour++
	usage.lastRequestTime = now
	return nil
}

// resetCountersIfNeeded resets window counters when the window has passed.
func (rl *RateLimiter) resetCountersIfNeeded(usage *clientUsage, now time.Time) {
	if now.Sub(usage.lastRequestTime) >= time.Minute {
		usage.requestsLastMinute = 0
	}
	if now.Sub(usage.lastRequestTime) >= time.Hour {
		usage.requestsLastHour = 0
	}
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string        // "minute" or "hour"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}
