package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Buckets idle longer than bucketIdleTTL are dropped during a sweep. Sweeps
// piggyback on allow() at most once per sweepInterval, so no background
// goroutine is needed.
const (
	sweepInterval = 5 * time.Minute
	bucketIdleTTL = 10 * time.Minute
)

// rateLimiter hands each client IP its own token bucket. Storefront traffic
// is bursty (a dashboard load fires a handful of API calls at once), so the
// burst is sized well above the refill rate.
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	refill    rate.Limit
	burst     int
	lastSweep time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// newRateLimiter creates a limiter refilling refill tokens per second with
// the given burst capacity per IP.
func newRateLimiter(refill float64, burst int) *rateLimiter {
	return &rateLimiter{
		buckets:   make(map[string]*bucket),
		refill:    rate.Limit(refill),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// allow takes one token from ip's bucket, creating the bucket on first sight.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweep(now)

	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.refill, rl.burst)}
		rl.buckets[ip] = b
	}
	b.seen = now
	return b.lim.Allow()
}

// sweep drops buckets for IPs not seen within bucketIdleTTL. Caller holds mu.
func (rl *rateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < sweepInterval {
		return
	}
	for ip, b := range rl.buckets {
		if now.Sub(b.seen) > bucketIdleTTL {
			delete(rl.buckets, ip)
		}
	}
	rl.lastSweep = now
}

// rateLimitMiddleware rejects requests from IPs that exhausted their bucket
// with 429 and a Retry-After hint.
func rateLimitMiddleware(rl *rateLimiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !rl.allow(ip) {
				logger.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestIDFromContext(r.Context()),
				)
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the address the limiter keys on.
//
// With trustProxy set it takes X-Real-IP, then the first X-Forwarded-For
// entry; both are run through net.ParseIP so a forged header cannot smuggle
// an arbitrary string into the bucket map. Without a proxy the headers are
// client-controlled, so only RemoteAddr is consulted.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
				return ip.String()
			}
		}

		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			raw := xff
			if first, _, ok := strings.Cut(xff, ","); ok {
				raw = first
			}
			if ip := net.ParseIP(strings.TrimSpace(raw)); ip != nil {
				return ip.String()
			}
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
