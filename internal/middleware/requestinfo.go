package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/arelclub/clubgate/internal/reqctx"
)

// RequestInfo seeds the request context with the client address and user
// agent. It must run after TrustedProxies has configured the IP extractor
// and before anything that records or rate-limits by address.
func RequestInfo() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := reqctx.With(req.Context(), reqctx.Info{
				ClientAddr: c.RealIP(),
				UserAgent:  req.UserAgent(),
			})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
