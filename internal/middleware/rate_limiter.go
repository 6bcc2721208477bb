package middleware

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RateLimiter implements a simple in-memory fixed-window rate limiter
type RateLimiter struct {
	userLimits map[uint]*counter
	ipLimits   map[string]*counter
	mu         sync.RWMutex

	userMaxRequests int
	ipMaxRequests   int
	window          time.Duration
	clock           clockwork.Clock

	stop     chan struct{}
	stopOnce sync.Once
}

type counter struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter. Call Stop to end its cleanup loop.
func NewRateLimiter(userMaxRequests, ipMaxRequests int, window time.Duration, clock clockwork.Clock) *RateLimiter {
	rl := &RateLimiter{
		userLimits:      make(map[uint]*counter),
		ipLimits:        make(map[string]*counter),
		userMaxRequests: userMaxRequests,
		ipMaxRequests:   ipMaxRequests,
		window:          window,
		clock:           clock,
		stop:            make(chan struct{}),
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// CheckUserLimit checks if user has exceeded rate limit
func (rl *RateLimiter) CheckUserLimit(userID uint) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return allowIn(rl.userLimits, userID, rl.userMaxRequests, rl.clock.Now(), rl.window)
}

// CheckIPLimit checks if IP has exceeded rate limit
func (rl *RateLimiter) CheckIPLimit(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return allowIn(rl.ipLimits, ip, rl.ipMaxRequests, rl.clock.Now(), rl.window)
}

func allowIn[K comparable](limits map[K]*counter, key K, maxRequests int, now time.Time, size time.Duration) bool {
	limit, exists := limits[key]
	if !exists || now.After(limit.resetTime) {
		limits[key] = &counter{
			requests:  1,
			resetTime: now.Add(size),
		}
		return true
	}

	// Check if limit exceeded
	if limit.requests >= maxRequests {
		return false
	}

	limit.requests++
	return true
}

// GetUserRemaining returns remaining requests for user
func (rl *RateLimiter) GetUserRemaining(userID uint) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return remainingIn(rl.userLimits, userID, rl.userMaxRequests, rl.clock.Now())
}

// GetIPRemaining returns remaining requests for IP
func (rl *RateLimiter) GetIPRemaining(ip string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return remainingIn(rl.ipLimits, ip, rl.ipMaxRequests, rl.clock.Now())
}

func remainingIn[K comparable](limits map[K]*counter, key K, maxRequests int, now time.Time) int {
	limit, exists := limits[key]
	if !exists || now.After(limit.resetTime) {
		return maxRequests
	}

	remaining := maxRequests - limit.requests
	if remaining < 0 {
		return 0
	}
	return remaining
}

// cleanup removes expired entries
func (rl *RateLimiter) cleanup() {
	ticker := rl.clock.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.Chan():
			rl.evictExpired()
		}
	}
}

func (rl *RateLimiter) evictExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for userID, limit := range rl.userLimits {
		if now.After(limit.resetTime) {
			delete(rl.userLimits, userID)
		}
	}
	for ip, limit := range rl.ipLimits {
		if now.After(limit.resetTime) {
			delete(rl.ipLimits, ip)
		}
	}
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Reset clears all rate limits (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.userLimits = make(map[uint]*counter)
	rl.ipLimits = make(map[string]*counter)
}
