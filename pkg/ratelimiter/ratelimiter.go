package ratelimiter

import (
	"sync"
	"time"
)

// counter tracks request count and window reset time for one client IP
type counter struct {
	count     int
	resetTime time.Time
}

// RateLimiter implements fixed-window IP-based rate limiting with in-memory tracking
type RateLimiter struct {
	requests map[string]*counter
	mutex    sync.RWMutex
	limit    int
	window   time.Duration
}

// New creates a new RateLimiter with the specified limit per window
func New(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string]*counter),
		limit:    limit,
		window:   window,
	}
}

// IsAllowed reports whether the IP may make another request in the current window
func (rl *RateLimiter) IsAllowed(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()

	c, exists := rl.requests[ip]
	if !exists {
		rl.requests[ip] = &counter{count: 1, resetTime: now.Add(rl.window)}
		return true
	}

	if now.After(c.resetTime) {
		c.count = 1
		c.resetTime = now.Add(rl.window)
		return true
	}

	if c.count >= rl.limit {
		return false
	}

	c.count++
	return true
}

// RequestInfo returns the current request count and window reset time for an IP
func (rl *RateLimiter) RequestInfo(ip string) (count int, resetTime time.Time) {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()

	c, exists := rl.requests[ip]
	if !exists || time.Now().After(c.resetTime) {
		return 0, time.Now().Add(rl.window)
	}

	return c.count, c.resetTime
}

// Cleanup removes expired windows to prevent memory growth
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for ip, c := range rl.requests {
		if now.After(c.resetTime) {
			delete(rl.requests, ip)
		}
	}
}
