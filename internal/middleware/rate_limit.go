package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	sweepEvery = 5 * time.Minute
	idleAfter  = 10 * time.Minute
)

// RateLimiter hands each authenticated actor its own token bucket.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	perMin  int
	refill  rate.Limit
	burst   int
	stopCh  chan struct{}
	stopped sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// quota is what one request learned about its actor's bucket
type quota struct {
	allowed   bool
	remaining int
	resetAt   time.Time
}

// NewRateLimiter allows requestsPerMinute per actor with bursts up to burst.
// Idle buckets are swept in the background until Stop is called.
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		perMin:  requestsPerMinute,
		refill:  rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		stopCh:  make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Allow spends one token from actor's bucket
func (r *RateLimiter) Allow(actor string) bool {
	return r.take(actor, time.Now()).allowed
}

func (r *RateLimiter) take(actor string, now time.Time) quota {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[actor]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r.refill, r.burst)}
		r.buckets[actor] = b
	}
	b.lastSeen = now

	q := quota{allowed: b.limiter.AllowN(now, 1)}
	tokens := b.limiter.TokensAt(now)
	if tokens > 0 {
		q.remaining = int(tokens)
	}
	missing := float64(r.burst) - tokens
	q.resetAt = now.Add(time.Duration(missing / float64(r.refill) * float64(time.Second)))
	return q
}

// sweep forgets actors that have been quiet for longer than idleAfter
func (r *RateLimiter) sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for actor, b := range r.buckets {
		if now.Sub(b.lastSeen) > idleAfter {
			delete(r.buckets, actor)
			dropped++
		}
	}
	return dropped
}

func (r *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if n := r.sweep(now); n > 0 {
				log.Debug().Int("actors", n).Msg("Swept idle rate limit buckets")
			}
		case <-r.stopCh:
			return
		}
	}
}

// Stop ends the background sweep
func (r *RateLimiter) Stop() {
	r.stopped.Do(func() { close(r.stopCh) })
}

// RateLimitMiddleware limits requests per authenticated actor and reports the
// bucket in X-RateLimit-* headers. It must run after AuthMiddleware.Authenticate.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	limit := strconv.Itoa(rl.perMin)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := GetActor(c)
			if actor == "" {
				return next(c)
			}

			now := time.Now()
			q := rl.take(actor, now)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(q.remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(q.resetAt.Unix(), 10))
			if q.allowed {
				return next(c)
			}

			retryAfter := max(int(q.resetAt.Sub(now).Seconds()), 1)
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			log.Warn().
				Str("actor", actor).
				Int("retry_after", retryAfter).
				Msg("Rate limit exceeded")

			return rateLimitError(c, "Too many requests. Please retry after "+strconv.Itoa(retryAfter)+" seconds.")
		}
	}
}
