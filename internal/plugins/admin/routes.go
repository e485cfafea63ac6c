package admin

import (
	"github.com/labstack/echo/v4"

	"github.com/arelclub/clubgate/internal/plugins/audit"
	"github.com/arelclub/clubgate/internal/plugins/auth"
	"github.com/arelclub/clubgate/internal/plugins/contact"
)

// RegisterRoutes creates the /admin group under api with admin
// authentication, then mounts the dashboard, user and session routes plus
// the log viewer and contact inbox owned by their plugins. Returns the group
// so other plugins can add admin routes.
func RegisterRoutes(api *echo.Group, h *Handler, authService auth.AuthService,
	auditHandler *audit.Handler, contactHandler *contact.Handler) *echo.Group {
	admin := api.Group("/admin", auth.RequireAdmin(authService))

	admin.GET("/stats", h.Stats)

	admin.GET("/users", h.Users)
	admin.PATCH("/users/:id", h.UpdateUser)

	admin.GET("/sessions", h.Sessions)
	admin.POST("/sessions/:tokenId/revoke", h.RevokeSession)

	audit.RegisterRoutes(admin, auditHandler)
	contact.RegisterAdminRoutes(admin, contactHandler)

	return admin
}
