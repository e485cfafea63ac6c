package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/arelclub/clubgate/internal/reqctx"
)

// RequireAuth returns middleware that admits only requests carrying a valid
// bearer token whose session is still open. The principal is attached to the
// request context for downstream handlers and the access log.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return gateway(service, false)
}

// RequireAdmin is RequireAuth plus the admin role check.
func RequireAdmin(service AuthService) echo.MiddlewareFunc {
	return gateway(service, true)
}

func gateway(service AuthService, requireAdmin bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			principal, err := service.Authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization), requireAdmin)
			if err != nil {
				return err
			}

			// Derive a new request record; the seeded one is left as-is.
			c.SetRequest(req.WithContext(reqctx.WithPrincipal(req.Context(), *principal)))
			return next(c)
		}
	}
}

// GetPrincipal returns the authenticated principal for the request, or nil
// if the request didn't pass through RequireAuth.
func GetPrincipal(c echo.Context) *reqctx.Principal {
	return reqctx.PrincipalFrom(c.Request().Context())
}
