package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-facility-platform/shared/metrics"
	"github.com/pavitra93/go-facility-platform/shared/utils"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per tenant.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	burst    int
}

func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		burst:    burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.r, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Middleware limits by the caller's tenant, or by client IP before
// authentication.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if p, err := PrincipalFromContext(c); err == nil {
			key = "tenant:" + p.TenantID.String()
		}

		if !rl.getLimiter(key).Allow() {
			metrics.HttpRateLimitRejectionsTotal.Inc()
			utils.TooManyRequestsResponse(c, "rate limit exceeded, slow down")
			c.Abort()
			return
		}

		c.Next()
	}
}
