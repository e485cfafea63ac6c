package audit

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the log listing on an admin group. The caller is
// responsible for putting admin authentication on g.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/logs", h.ListLogs)
}
