package middleware

import (
	"net/http"
	"sync"
	"time"
)

const (
	defaultSweepEvery = 5 * time.Minute
	defaultIdleAfter  = 10 * time.Minute
)

// RateLimiter keeps a token bucket per client address. Buckets refill
// continuously at the configured rate and a background sweep drops buckets
// that have been idle past the eviction window, so the map stays bounded by
// the set of recently active clients rather than every address ever seen.
type RateLimiter struct {
	rate       float64
	burst      float64
	sweepEvery time.Duration
	idleAfter  time.Duration

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	tokens float64
	seen   time.Time
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithEviction overrides how often idle buckets are swept and how long a
// client must stay silent before its bucket is dropped.
func WithEviction(sweepEvery, idleAfter time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		if sweepEvery > 0 {
			rl.sweepEvery = sweepEvery
		}
		if idleAfter > 0 {
			rl.idleAfter = idleAfter
		}
	}
}

// NewRateLimiter creates a limiter admitting rate requests per second with
// the given burst per client.
func NewRateLimiter(rate float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		rate:       rate,
		burst:      float64(burst),
		sweepEvery: defaultSweepEvery,
		idleAfter:  defaultIdleAfter,
		clients:    make(map[string]*clientBucket),
	}
	for _, opt := range opts {
		opt(rl)
	}
	go rl.sweep()
	return rl
}

// Allow reports whether a request from addr fits within the limit, spending
// one token when it does.
func (rl *RateLimiter) Allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.clients[addr]
	if !ok {
		b = &clientBucket{tokens: rl.burst, seen: now}
		rl.clients[addr] = b
	}

	b.tokens = min(rl.burst, b.tokens+now.Sub(b.seen).Seconds()*rl.rate)
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.sweepEvery)
	defer ticker.Stop()
	for range ticker.C {
		rl.evictIdle(time.Now())
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for addr, b := range rl.clients {
		if now.Sub(b.seen) >= rl.idleAfter {
			delete(rl.clients, addr)
		}
	}
}

// RateLimit returns a middleware that answers 429 once a client exhausts its
// bucket. Clients are keyed by the X-Real-Ip header chi's RealIP middleware
// resolves, falling back to the connection's remote address.
func RateLimit(rate float64, burst int, opts ...RateLimiterOption) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst, opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := r.RemoteAddr
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				addr = xri
			}
			if !limiter.Allow(addr) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
