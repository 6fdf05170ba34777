package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin adapts net/http middleware to Gin. The gin client IP, which honours the
// engine's trusted proxies, replaces RemoteAddr for audit events.
func Gin(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		req := c.Request
		if !hasClientIP(req.Context()) {
			req = req.WithContext(withClientIPSet(req.Context(), c.ClientIP()))
		}
		mw(next).ServeHTTP(c.Writer, req)

		// The middleware answered without calling next.
		if c.Writer.Written() && !c.IsAborted() {
			c.Abort()
		}
	}
}
