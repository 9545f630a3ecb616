package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders is the outermost stage of the chain (spec.md §4.12):
// standard hardening headers applied to every response.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		h.Set("Referrer-Policy", "no-referrer")
		c.Next()
	}
}
