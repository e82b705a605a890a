// middleware/security_headers.go
package middleware

import (
	"github.com/labstack/echo/v4"
)

// The API only serves JSON, so nothing may be embedded or executed
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

type SecurityConfig struct {
	// HSTS is only sent behind TLS in production
	HSTS bool
}

func SecurityHeaders(config SecurityConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
			h.Set("Content-Security-Policy", apiCSP)
			h.Set("Cache-Control", "no-store")
			if config.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			h.Del("Server")

			return next(c)
		}
	}
}
