package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/xbcsmith/xzepr/internal/pkg/errors"
)

// RateLimiter is a per-key token-bucket limiter (spec.md §4.12, §5: "either
// per-process maps with per-key mutexes, or a shared store"). This is the
// per-process variant; rate_limit.backend is read from config, but only this
// per-process store exists.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
	window   time.Duration
}

func NewRateLimiter(rps float64, burst int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Second
	}
	return &RateLimiter{limiters: make(map[string]*rate.Limiter), rps: rate.Limit(rps), burst: burst, window: window}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// Cleanup resets tracked limiters past a size ceiling, preventing unbounded
// growth from one-shot or spoofed keys.
func (rl *RateLimiter) Cleanup(maxTracked int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.limiters) > maxTracked {
		rl.limiters = make(map[string]*rate.Limiter)
	}
}

func (rl *RateLimiter) keyFor(c *gin.Context) string {
	if uid := GetUserID(c.Request.Context()); uid != "" {
		return uid
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// Limit enforces rl against every request (spec.md §4.12: "returns 429
// with Retry-After").
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(rl.keyFor(c)).Allow() {
			seconds := int(math.Ceil(rl.window.Seconds()))
			if seconds > 0 {
				c.Writer.Header().Set("Retry-After", strconv.Itoa(seconds))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   apperrors.CodeRateLimited,
				"message": "too many requests",
			})
			return
		}
		c.Next()
	}
}
