package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/engram/engram/config"
	"github.com/engram/engram/pkg/api/response"
)

// limiterIdleTimeout is how long a client's bucket survives without traffic
// before the sweep reclaims it.
const limiterIdleTimeout = 3 * time.Minute

// RateLimiter manages rate limiting per client.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters:  make(map[string]*clientLimiter),
		rate:      rate.Limit(requestsPerSecond),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// getLimiter gets or creates a limiter for a client.
func (rl *RateLimiter) getLimiter(clientID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > time.Minute {
		rl.sweepLocked(now)
	}

	client, exists := rl.limiters[clientID]
	if !exists {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[clientID] = client
	}
	client.lastSeen = now

	return client.limiter
}

// sweepLocked drops buckets for clients that have gone quiet. Callers hold mu.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for clientID, client := range rl.limiters {
		if now.Sub(client.lastSeen) > limiterIdleTimeout {
			delete(rl.limiters, clientID)
		}
	}
	rl.lastSweep = now
}

// Allow reports whether clientID may proceed, and when to retry if not.
func (rl *RateLimiter) Allow(clientID string) (bool, time.Duration) {
	limiter := rl.getLimiter(clientID)
	if limiter.Allow() {
		return true, 0
	}

	// Calculate retry-after duration without consuming a token
	reservation := limiter.Reserve()
	retryAfter := reservation.Delay()
	reservation.Cancel()
	return false, retryAfter
}

// RateLimit returns a middleware that enforces per-client request rates.
// Probe endpoints are never limited.
func RateLimit(cfg *config.RateLimitConfig) func(http.Handler) http.Handler {
	if cfg == nil || !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	rl := NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbeRequest(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			allowed, retryAfter := rl.Allow(clientID(r))
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))

				requestID := GetRequestID(r.Context())
				if requestID == "" {
					requestID = "unknown"
				}
				response.Error(w,
					http.StatusTooManyRequests,
					response.ErrCodeRateLimited,
					"Rate limit exceeded",
					requestID,
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isProbeRequest(path string) bool {
	switch path {
	case "/health", "/ready", "/metrics":
		return true
	}
	return false
}

// clientID identifies the caller, preferring the first forwarded hop so
// limits follow the client through a proxy.
func clientID(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
