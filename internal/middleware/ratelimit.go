package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/noah-isme/sma-results-api/internal/service"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
	"github.com/noah-isme/sma-results-api/pkg/response"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Idle buckets are swept.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	window   time.Duration
	expiry   time.Duration
	now      func() time.Time
}

// NewIPRateLimiter allows requests per window for each client. requests <= 0 disables limiting.
func NewIPRateLimiter(requests int, window time.Duration) *IPRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	expiry := window * 3
	if expiry < time.Minute {
		expiry = time.Minute
	}
	l := &IPRateLimiter{
		visitors: make(map[string]*visitor),
		burst:    requests,
		window:   window,
		expiry:   expiry,
		now:      time.Now,
	}
	if requests > 0 {
		l.limit = rate.Every(window / time.Duration(requests))
	}
	return l
}

// Enabled reports whether the limiter rejects anything.
func (l *IPRateLimiter) Enabled() bool {
	return l != nil && l.burst > 0
}

// Allow consumes a token for key.
func (l *IPRateLimiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	now := l.now()
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than the expiry and returns how many were removed.
func (l *IPRateLimiter) Sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.expiry {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle buckets every minute until ctx is cancelled.
func (l *IPRateLimiter) Run(ctx context.Context) {
	if !l.Enabled() {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// RateLimit rejects clients that exceed the limiter with 429 and a Retry-After hint.
func RateLimit(limiter *IPRateLimiter, metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		metrics.RecordRateLimited()
		retryAfter := int(math.Ceil(limiter.window.Seconds() / float64(limiter.burst)))
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		response.Error(c, appErrors.ErrTooManyRequests)
		c.Abort()
	}
}
