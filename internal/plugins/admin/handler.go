package admin

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arelclub/clubgate/internal/apperror"
	"github.com/arelclub/clubgate/internal/plugins/auth"
)

// Handler handles admin API requests.
type Handler struct {
	service AdminService
}

// NewHandler creates a new admin handler.
func NewHandler(service AdminService) *Handler {
	return &Handler{service: service}
}

// Stats returns the dashboard summary (GET /api/admin/stats).
func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
	})
}

// Users lists every account (GET /api/admin/users).
func (h *Handler) Users(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
	})
}

// UpdateUser toggles active or changes role (PATCH /api/admin/users/:id).
func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return apperror.NewBadRequest("invalid user id")
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	if err := h.service.UpdateUser(c.Request().Context(), auth.GetPrincipal(c), id, req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "User updated.",
	})
}

// Sessions lists the newest sessions (GET /api/admin/sessions).
func (h *Handler) Sessions(c echo.Context) error {
	sessions, err := h.service.ListSessions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"sessions": sessions,
	})
}

// RevokeSession closes a session (POST /api/admin/sessions/:tokenId/revoke).
func (h *Handler) RevokeSession(c echo.Context) error {
	if err := h.service.RevokeSession(c.Request().Context(), auth.GetPrincipal(c), c.Param("tokenId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Session revoked.",
	})
}
