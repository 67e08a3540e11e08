package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/npolukhin/shortlink/internal/ratelimit"
)

// RateLimitMiddleware общий лимит создания ссылок по IP клиента.
// Отдельный, более жесткий лимит на кастомные алиасы проверяет
// контроллер: до разбора тела не известно, запрошен ли алиас.
func RateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		if !limiter.Allow(c.ClientIP()) {
			RecordRateLimitHit()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, try again later",
			})
			return
		}
		c.Next()
	}
}
