package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRate is the proactive throttle rate, about 4,300 requests per
	// hour, under the authenticated limit.
	DefaultRate = rate.Limit(1.2)

	// MinBuffer is the minimum remaining requests before waiting for reset.
	MinBuffer = 10

	// HeaderRateLimit is the rate limit header.
	HeaderRateLimit = "X-RateLimit-Limit"

	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"
)

// unknownLimit is assumed until the first response reports the real one.
const unknownLimit = 60

// RateLimiter throttles requests with a token bucket and honours the
// limits GitHub reports.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetTime time.Time
	bucket    *rate.Limiter
	minBuffer int
}

// NewRateLimiter creates a rate limiter allowing r requests per second.
func NewRateLimiter(r rate.Limit) *RateLimiter {
	return &RateLimiter{
		remaining: unknownLimit,
		limit:     unknownLimit,
		bucket:    rate.NewLimiter(r, 1),
		minBuffer: MinBuffer,
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining := r.remaining
	resetTime := r.resetTime
	r.mu.Unlock()

	if remaining < r.minBuffer && time.Now().Before(resetTime) {
		timer := time.NewTimer(time.Until(resetTime))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return nil
}

// UpdateFromResponse updates rate limit state from response headers.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if remaining := resp.Header.Get(HeaderRateRemaining); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			r.remaining = val
		}
	}

	if limit := resp.Header.Get(HeaderRateLimit); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			r.limit = val
		}
	}

	// Unix timestamp
	if reset := resp.Header.Get(HeaderRateReset); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			r.resetTime = time.Unix(val, 0)
		}
	}
}

// Remaining returns the current remaining requests.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Limit returns the rate limit.
func (r *RateLimiter) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

// ResetTime returns the rate limit reset time.
func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetTime
}
