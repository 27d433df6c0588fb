/*
Package limiter provides request rate limiting keyed by client IP address.

It utilizes the Token Bucket algorithm (rate.Limiter) to control the request
frequency for each caller and includes a cleanup goroutine that periodically
removes inactive limiters, preventing memory growth from one-shot callers.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"peertoken/internal/pkg/errs"
	"peertoken/internal/pkg/logx"
	"peertoken/internal/pkg/resp"

	"golang.org/x/time/rate"
)

// cleanupInterval controls how often idle per-IP buckets are reclaimed.
const cleanupInterval = 3 * time.Minute

// IPRateLimiter implements a rate limiter keyed by client IP address.
type IPRateLimiter struct {
	// mu protects concurrent access to the limits map.
	mu sync.RWMutex

	// limits maps a client IP address to its *rate.Limiter instance.
	limits map[string]*rate.Limiter

	// r is the sustained rate, in events per second.
	r rate.Limit

	// b is the burst size (token bucket capacity).
	b int
}

// NewIPRateLimiter creates a new IPRateLimiter with the given sustained rate and
// burst capacity, and starts the background cleanup goroutine.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.cleanUpVisitors()

	return i
}

// GetLimiter retrieves the rate limiter for the given IP address, creating one on
// first sight. Double-checked locking keeps creation safe under concurrency.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// cleanUpVisitors periodically removes limiters whose bucket is full again,
// meaning the IP has been idle for at least a full refill period.
func (i *IPRateLimiter) cleanUpVisitors() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		i.mu.Lock()
		count := 0
		for ip, limiter := range i.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(i.limits, ip)
				count++
			}
		}
		remaining := len(i.limits)
		i.mu.Unlock()

		logx.Info("Rate limiter cleanup finished",
			"removed", count,
			"active", remaining,
		)
	}
}

// Middleware returns an HTTP middleware that rejects callers over budget with
// 429 rate_limited before the request reaches the policy engine.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !i.GetLimiter(ip).Allow() {
			resp.RespondError(w, r, errs.NewError(errs.CodeRateLimited))
			return
		}

		next.ServeHTTP(w, r)
	})
}
