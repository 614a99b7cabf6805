package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders hardens JSON responses. Auth and admin responses carry
// tokens or customer data and are marked no-store; hsts is only turned on
// behind TLS termination in prod.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cross-Origin-Resource-Policy", "same-site")

		if hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/auth/") || strings.HasPrefix(path, "/api/admin/") {
			h.Set("Cache-Control", "no-store")
		}

		c.Next()
	}
}
