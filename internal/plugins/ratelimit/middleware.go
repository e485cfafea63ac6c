package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arelclub/clubgate/internal/reqctx"
)

// Limit returns middleware that admits requests through policy. The counter
// key is the matched route template, so parameterized paths share a counter.
// Denials answer 429 with a Retry-After header.
func Limit(l Ledger, policy Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			clientAddr := reqctx.From(ctx).ClientAddr
			if clientAddr == "" {
				clientAddr = c.RealIP()
			}
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			d := l.Admit(ctx, clientAddr, path, policy)
			if d.Allowed {
				return next(c)
			}

			c.Response().Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
			return c.JSON(http.StatusTooManyRequests, map[string]any{
				"success":    false,
				"error":      "Too many requests. Please try again later.",
				"retryAfter": d.RetryAfter,
			})
		}
	}
}
