package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arelclub/clubgate/internal/apperror"
)

// Handler handles HTTP requests for authentication. Handlers are thin: they
// bind the request, call the service, and render the response. No business
// logic lives here.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// Register creates an account (POST /api/auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	_, err := h.service.Register(c.Request().Context(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration successful. You can now log in.",
	})
}

// Login exchanges credentials for a bearer token (POST /api/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	result, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"token":   result.Token,
		"user":    result.User.Public(),
	})
}

// Logout revokes the caller's session (POST /api/auth/logout).
func (h *Handler) Logout(c echo.Context) error {
	if err := h.service.Logout(c.Request().Context(), GetPrincipal(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully.",
	})
}

// Me returns the caller's account (GET /api/auth/me).
func (h *Handler) Me(c echo.Context) error {
	principal := GetPrincipal(c)
	if principal == nil {
		return apperror.NewMissingContext()
	}

	user, err := h.service.Me(c.Request().Context(), principal.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}
