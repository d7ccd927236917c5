package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"onprem-cd/internal/pkg/metrics"
	"onprem-cd/internal/pkg/ratelimit"
	"onprem-cd/pkg/responses"
)

// RateLimitMiddleware 按订阅方限流, 未认证的请求按客户端 IP 限流
func RateLimitMiddleware(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if subscriber := CurrentSubscriber(c); subscriber != nil {
			key = "subscriber:" + strconv.FormatInt(subscriber.ID, 10)
		}

		if !limiter.Allow(c.Request.Context(), key) {
			metrics.RateLimitHits.WithLabelValues(c.FullPath()).Inc()
			responses.AbortWithError(c, responses.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
