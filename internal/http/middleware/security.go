// Package middleware – security response headers.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS adds Strict-Transport-Security on HTTPS responses.
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// SecurityHeaders sets a conservative header posture on every response.
// HSTS is only emitted when enabled and the request actually arrived over
// TLS, so a plain-HTTP dev setup never pins itself.
func SecurityHeaders(opts SecurityOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opts.EnableHSTS && c.Request.TLS != nil {
			maxAge := int(opts.HSTSMaxAge / time.Second)
			if maxAge > 0 {
				h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(maxAge))
			}
		}
		c.Next()
	}
}
