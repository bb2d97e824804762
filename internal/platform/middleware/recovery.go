package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const panicStackSize = 4 << 10

func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				stack := make([]byte, panicStackSize)
				stack = stack[:runtime.Stack(stack, false)]

				rid, _ := c.Get("request_id").(string)
				logger.Error().
					Str("request_id", rid).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Str("panic", fmt.Sprint(r)).
					Bytes("stack", stack).
					Msg("panic recovered")

				err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}()
			return next(c)
		}
	}
}
