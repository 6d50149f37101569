package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mroshb/economy_bot/pkg/errors"
)

// UserIDHeader carries the chat user on whose behalf a request is made.
const UserIDHeader = "X-User-ID"

// RateLimiter implements a simple in-memory fixed window rate limiter
type RateLimiter struct {
	userLimits map[string]*limit
	ipLimits   map[string]*limit
	mu         sync.Mutex

	userMaxRequests int
	ipMaxRequests   int
	window          time.Duration
	now             func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type limit struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter. Call Stop to end its cleanup
// goroutine.
func NewRateLimiter(userMaxRequests, ipMaxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		userLimits:      make(map[string]*limit),
		ipLimits:        make(map[string]*limit),
		userMaxRequests: userMaxRequests,
		ipMaxRequests:   ipMaxRequests,
		window:          window,
		now:             time.Now,
		stop:            make(chan struct{}),
	}

	go rl.cleanup(5 * time.Minute)

	return rl
}

func (rl *RateLimiter) check(limits map[string]*limit, key string, max int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	l, exists := limits[key]
	if !exists || now.After(l.resetTime) {
		limits[key] = &limit{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if l.requests >= max {
		return false
	}
	l.requests++
	return true
}

func (rl *RateLimiter) remaining(limits map[string]*limit, key string, max int) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, exists := limits[key]
	if !exists || rl.now().After(l.resetTime) {
		return max
	}
	if remaining := max - l.requests; remaining > 0 {
		return remaining
	}
	return 0
}

// CheckUserLimit checks if user has exceeded rate limit
func (rl *RateLimiter) CheckUserLimit(userID string) bool {
	return rl.check(rl.userLimits, userID, rl.userMaxRequests)
}

// CheckIPLimit checks if IP has exceeded rate limit
func (rl *RateLimiter) CheckIPLimit(ip string) bool {
	return rl.check(rl.ipLimits, ip, rl.ipMaxRequests)
}

func (rl *RateLimiter) GetUserRemaining(userID string) int {
	return rl.remaining(rl.userLimits, userID, rl.userMaxRequests)
}

func (rl *RateLimiter) GetIPRemaining(ip string) int {
	return rl.remaining(rl.ipLimits, ip, rl.ipMaxRequests)
}

// Handler rejects requests over the IP or user limit with 429.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.CheckIPLimit(clientIP(r)) {
			rl.reject(w)
			return
		}
		if userID := strings.TrimSpace(r.Header.Get(UserIDHeader)); userID != "" && !rl.CheckUserLimit(userID) {
			rl.reject(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) reject(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    errors.ErrCodeRateLimitExceeded,
			"message": "too many requests, slow down",
		},
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// cleanup removes expired entries
func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, l := range rl.userLimits {
		if now.After(l.resetTime) {
			delete(rl.userLimits, key)
		}
	}
	for key, l := range rl.ipLimits {
		if now.After(l.resetTime) {
			delete(rl.ipLimits, key)
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Reset clears all rate limits (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.userLimits = make(map[string]*limit)
	rl.ipLimits = make(map[string]*limit)
}
