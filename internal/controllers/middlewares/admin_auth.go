package middlewares

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/npolukhin/shortlink/internal/tokens"
)

const (
	// SessionCookieName имя куки с сессионным токеном админки.
	SessionCookieName = "admin_session"
	// LoginPath маршрут логина, куда отправляются браузерные запросы
	// без валидной сессии.
	LoginPath = "/admin/login"
)

// AdminAuthMiddleware пускает дальше только запросы с валидным
// сессионным токеном. Браузерные запросы без сессии уезжают редиректом
// на страницу логина, API запросы получают 401.
func AdminAuthMiddleware(secret []byte, maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secret) == 0 {
			// секрет не задан — админка выключена целиком
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin is not configured"})
			return
		}

		cookie, err := c.Request.Cookie(SessionCookieName)
		if err == nil && tokens.VerifySessionToken(cookie.Value, secret, maxAge, time.Now()) {
			c.Next()
			return
		}

		if wantsHTML(c) {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

// wantsHTML браузерный запрос или API. Ориентируемся на Accept:
// браузеры всегда просят text/html.
func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
