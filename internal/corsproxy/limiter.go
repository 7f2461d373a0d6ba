package corsproxy

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vrpill/vrcwatch/internal/logx"
)

// sweepThreshold is the bucket count at which idle buckets are dropped before
// a new one is added.
const sweepThreshold = 1024

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter
	r      rate.Limit
	b      int
}

// NewIPRateLimiter creates a limiter allowing r requests per second with burst
// b for each client IP.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	if b < 1 {
		b = 1
	}
	return &IPRateLimiter{limits: make(map[string]*rate.Limiter), r: r, b: b}
}

// GetLimiter returns the bucket for ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()
	if exists {
		return limiter
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if limiter, exists = i.limits[ip]; !exists {
		if len(i.limits) >= sweepThreshold {
			i.sweepLocked(time.Now())
		}
		limiter = rate.NewLimiter(i.r, i.b)
		i.limits[ip] = limiter
	}
	return limiter
}

// Sweep drops buckets that have refilled completely, meaning the client has
// been idle. It returns the number removed.
func (i *IPRateLimiter) Sweep(now time.Time) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.sweepLocked(now)
}

func (i *IPRateLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for ip, limiter := range i.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(i.limits, ip)
			removed++
		}
	}
	if removed > 0 {
		logx.Info("rate limiter sweep", "removed", removed, "active", len(i.limits))
	}
	return removed
}

// Middleware rejects requests over the client's budget with 429.
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
			writeFault(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
