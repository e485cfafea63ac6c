package contact

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the public form on the /api group behind the contact
// rate-limit policy.
func RegisterRoutes(g *echo.Group, h *Handler, limit echo.MiddlewareFunc) {
	g.POST("/contact", h.Submit, limit)
}

// RegisterAdminRoutes mounts the inbox on an admin group. The caller puts
// admin authentication on g.
func RegisterAdminRoutes(g *echo.Group, h *Handler) {
	g.GET("/contacts", h.List)
	g.PATCH("/contacts/:id/read", h.MarkRead)
	g.DELETE("/contacts/:id", h.Delete)
}
