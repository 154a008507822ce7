package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"podium/internal/httputil"
)

// RateLimiterConfig holds the per-user limits. Generation is far more
// expensive than the rest of the API, so it gets its own bucket.
type RateLimiterConfig struct {
	GeneralRate   rate.Limit
	GeneralBurst  int
	GenerateRate  rate.Limit
	GenerateBurst int
	// CleanupInterval controls eviction of idle per-user limiters.
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig: 60 req/min/user generally, 6 generate
// calls/min/user.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    60,
		GenerateRate:    rate.Limit(0.1),
		GenerateBurst:   6,
		CleanupInterval: 5 * time.Minute,
	}
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter tracks one token bucket per user per class.
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	general  map[string]*userLimiter
	generate map[string]*userLimiter
	done     chan struct{}
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		general:  make(map[string]*userLimiter),
		generate: make(map[string]*userLimiter),
		done:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Close stops the background cleanup.
func (rl *RateLimiter) Close() {
	close(rl.done)
}

// General limits ordinary API traffic.
func (rl *RateLimiter) General(next http.Handler) http.Handler {
	return rl.limit(next, rl.general, rl.config.GeneralRate, rl.config.GeneralBurst)
}

// Generate limits the expensive generation endpoint.
func (rl *RateLimiter) Generate(next http.Handler) http.Handler {
	return rl.limit(next, rl.generate, rl.config.GenerateRate, rl.config.GenerateBurst)
}

func (rl *RateLimiter) limit(next http.Handler, limiters map[string]*userLimiter, r rate.Limit, burst int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		userID := httputil.GetUserID(req)
		if userID == "" {
			// Auth runs before rate limiting; an empty id means an
			// unauthenticated route, which is not limited per user.
			next.ServeHTTP(w, req)
			return
		}

		rl.mu.Lock()
		ul, ok := limiters[userID]
		if !ok {
			ul = &userLimiter{limiter: rate.NewLimiter(r, burst)}
			limiters[userID] = ul
		}
		ul.lastAccess = time.Now()
		allowed := ul.limiter.Allow()
		rl.mu.Unlock()

		if !allowed {
			httputil.RespondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.config.CleanupInterval)
			rl.mu.Lock()
			for _, limiters := range []map[string]*userLimiter{rl.general, rl.generate} {
				for id, ul := range limiters {
					if ul.lastAccess.Before(cutoff) {
						delete(limiters, id)
					}
				}
			}
			rl.mu.Unlock()
		}
	}
}
