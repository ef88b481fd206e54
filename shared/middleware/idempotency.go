package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-facility-platform/shared/metrics"
	"github.com/pavitra93/go-facility-platform/shared/utils"
	"github.com/sirupsen/logrus"
)

const IdempotencyHeader = "X-Idempotency-Key"

type bodyWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Idempotency replays the first successful response for a repeated
// X-Idempotency-Key sent by the caller's tenant to the same method and path.
// A key whose first request is still running answers 409. Without Redis the
// middleware is a no-op.
func Idempotency(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || c.Request.Method == http.MethodGet || utils.RedisClient == nil {
			c.Next()
			return
		}
		p, err := PrincipalFromContext(c)
		if err != nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		redisKey := fmt.Sprintf("idempotency:%s:%s:%s:%s", p.TenantID, c.Request.Method, c.Request.URL.Path, key)
		lockKey := redisKey + ":lock"

		if replay(c, redisKey) {
			return
		}

		claimed, err := utils.ClaimKey(ctx, lockKey, 30*time.Second)
		if err != nil {
			logrus.WithError(err).Warn("Idempotency lock unavailable, continuing without it")
			c.Next()
			return
		}
		if !claimed {
			utils.ErrorResponse(c, http.StatusConflict, "A request with this idempotency key is in progress")
			c.Abort()
			return
		}
		defer func() { _ = utils.CacheDelete(ctx, lockKey) }()

		// the first request may have finished between the lookup and the claim
		if replay(c, redisKey) {
			return
		}

		bw := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = bw
		c.Next()

		if status := bw.Status(); status < http.StatusBadRequest {
			if data, err := json.Marshal(storedResponse{Status: status, Body: bw.body}); err == nil {
				if err := utils.CacheSet(ctx, redisKey, string(data), ttl); err != nil {
					logrus.WithError(err).Warn("Failed to store idempotent response")
				}
			}
		}
	}
}

// replay answers from the stored response for redisKey, if there is one.
func replay(c *gin.Context, redisKey string) bool {
	cached, err := utils.CacheGet(c.Request.Context(), redisKey)
	if err != nil {
		return false
	}
	var resp storedResponse
	if json.Unmarshal([]byte(cached), &resp) != nil {
		return false
	}
	metrics.IdempotentReplaysTotal.Inc()
	c.Data(resp.Status, "application/json; charset=utf-8", resp.Body)
	c.Abort()
	return true
}
