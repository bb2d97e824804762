package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Logger writes one line per request. Health probes are logged at debug so
// they do not drown out wizard traffic.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			var evt *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				evt = logger.Error().Err(err)
			case status >= http.StatusBadRequest:
				evt = logger.Warn()
			case strings.HasPrefix(req.URL.Path, "/health"):
				evt = logger.Debug()
			default:
				evt = logger.Info()
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", c.Path()).
				Int("status", status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
