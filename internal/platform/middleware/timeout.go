package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout puts a deadline on each request context and answers 504
// once it passes. Paths under any of the skip prefixes run without a
// deadline. A zero timeout disables the middleware.
func RequestTimeout(timeout time.Duration, skip ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, prefix := range skip {
				if strings.HasPrefix(path, prefix) {
					return next(c)
				}
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					if c.Response().Committed {
						return nil
					}
					return c.JSON(http.StatusGatewayTimeout, map[string]string{
						"message": "request processing exceeded the allowed time limit",
					})
				}
				return ctx.Err()
			}
		}
	}
}
