package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const defaultBodyLimit = 1 << 20

// BodyLimit rejects request bodies larger than limit with 413. Limits are
// human-readable sizes: "512K", "1M", "2G", or a bare byte count.
func BodyLimit(limit string) echo.MiddlewareFunc {
	max := parseLimit(limit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}

			if req.ContentLength > max {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
					fmt.Sprintf("request body exceeds maximum allowed size of %d bytes", max))
			}

			// Content-Length can be absent or wrong.
			req.Body = &limitedReadCloser{ReadCloser: req.Body, remaining: max}
			return next(c)
		}
	}
}

type limitedReadCloser struct {
	io.ReadCloser
	remaining int64
	exceeded  bool
}

func (r *limitedReadCloser) Read(p []byte) (int, error) {
	if r.exceeded {
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}

	// Read one byte past the limit to detect overflow.
	if int64(len(p)) > r.remaining+1 {
		p = p[:r.remaining+1]
	}
	n, err := r.ReadCloser.Read(p)
	r.remaining -= int64(n)
	if r.remaining < 0 {
		r.exceeded = true
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}
	return n, err
}

// parseLimit falls back to 1 MB for empty or malformed input.
func parseLimit(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBodyLimit
	}
	s = strings.TrimSuffix(s, "B")

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "G"):
		multiplier = 1 << 30
	case strings.HasSuffix(s, "M"):
		multiplier = 1 << 20
	case strings.HasSuffix(s, "K"):
		multiplier = 1 << 10
	}
	if multiplier > 1 {
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return defaultBodyLimit
	}
	return n * multiplier
}
