package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL is how long a client's bucket is kept after its last request.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
		IdleTTL:           10 * time.Minute,
	}
}

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenBucket(rate float64, burst int, now time.Time) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: now,
	}
}

// take reports whether a token was available and how many remain.
func (b *tokenBucket) take(now time.Time) (bool, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens)
	}
	return false, 0
}

func (b *tokenBucket) retryAfter() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refillRate <= 0 {
		return 1
	}
	return int((1-b.tokens)/b.refillRate) + 1
}

func (b *tokenBucket) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRefill
}

// rateLimiterStore holds one bucket per client IP.
type rateLimiterStore struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	config    RateLimitConfig
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	return &rateLimiterStore{
		buckets: make(map[string]*tokenBucket),
		config:  cfg,
		now:     time.Now,
	}
}

func (s *rateLimiterStore) getBucket(key string, now time.Time) *tokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIdle(now)
	if bucket, ok := s.buckets[key]; ok {
		return bucket
	}
	bucket := newTokenBucket(s.config.RequestsPerSecond, s.config.BurstSize, now)
	s.buckets[key] = bucket
	return bucket
}

// evictIdle drops buckets unused for IdleTTL, at most once per IdleTTL.
// Callers hold s.mu.
func (s *rateLimiterStore) evictIdle(now time.Time) {
	ttl := s.config.IdleTTL
	if ttl <= 0 || now.Sub(s.lastSweep) < ttl {
		return
	}
	s.lastSweep = now
	for key, b := range s.buckets {
		if now.Sub(b.idleSince()) >= ttl {
			delete(s.buckets, key)
		}
	}
}

func (s *rateLimiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimit throttles each client IP with a token bucket.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newRateLimiterStore(cfg)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := store.now()
			bucket := store.getBucket(c.RealIP(), now)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)

			ok, remaining := bucket.take(now)
			if !ok {
				h.Set("Retry-After", strconv.Itoa(bucket.retryAfter()))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			return next(c)
		}
	}
}
