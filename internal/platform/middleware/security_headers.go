package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets the response headers every registration response
// carries. Strict-Transport-Security is only sent when hsts is true, i.e.
// when the server terminates TLS itself.
func SecurityHeaders(hsts bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "0")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// Draft and record payloads hold PHI.
			h.Set("Cache-Control", "no-store")

			if hsts {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			return next(c)
		}
	}
}
