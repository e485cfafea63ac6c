package audit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler serves the admin log listing. Handlers are thin: bind request,
// call service, render response.
type Handler struct {
	service AuditService
}

// NewHandler creates a new audit handler.
func NewHandler(service AuditService) *Handler {
	return &Handler{service: service}
}

// ListLogs returns a page of log entries (GET /api/admin/logs).
// Query: type (optional), page (default 1), limit (default 50, max 200).
func (h *Handler) ListLogs(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.service.List(c.Request().Context(), c.QueryParam("type"), page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"logs":    result.Logs,
		"total":   result.Total,
		"page":    result.Page,
		"limit":   result.Limit,
	})
}
