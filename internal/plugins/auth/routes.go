package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the auth routes on g (mounted at /api/auth).
// Register and login take the auth rate-limit policy to slow brute-force and
// credential stuffing; logout and me require a valid session.
func RegisterRoutes(g *echo.Group, h *Handler, service AuthService, authLimit echo.MiddlewareFunc) {
	g.POST("/register", h.Register, authLimit)
	g.POST("/login", h.Login, authLimit)

	g.POST("/logout", h.Logout, RequireAuth(service))
	g.GET("/me", h.Me, RequireAuth(service))
}
