package contact

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arelclub/clubgate/internal/apperror"
)

// Handler serves the public contact form and the admin inbox.
type Handler struct {
	service ContactService
}

// NewHandler creates a new contact handler.
func NewHandler(service ContactService) *Handler {
	return &Handler{service: service}
}

// Submit stores a contact message (POST /api/contact).
func (h *Handler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	if _, err := h.service.Submit(c.Request().Context(), req); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"message": "Your message has been received. We'll get back to you soon!",
	})
}

// List returns every message, newest first (GET /api/admin/contacts).
func (h *Handler) List(c echo.Context) error {
	messages, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"contacts": messages,
	})
}

// MarkRead flags a message as read (PATCH /api/admin/contacts/:id/read).
func (h *Handler) MarkRead(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// Delete removes a message (DELETE /api/admin/contacts/:id).
func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Message deleted.",
	})
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NewBadRequest("invalid message id")
	}
	return id, nil
}
