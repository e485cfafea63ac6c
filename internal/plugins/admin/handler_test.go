package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arelclub/clubgate/internal/apperror"
	"github.com/arelclub/clubgate/internal/reqctx"
)

// withPrincipal stands in for RequireAdmin.
func withPrincipal(p reqctx.Principal) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(reqctx.WithPrincipal(req.Context(), p)))
			return next(c)
		}
	}
}

func newHandlerServer(f *fixture) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.JSON(apperror.SafeCode(err), map[string]any{
			"success": false,
			"error":   apperror.SafeMessage(err),
		})
	}

	h := NewHandler(f.svc)
	g := e.Group("/api/admin", withPrincipal(reqctx.Principal{
		UserID: 1, Email: "root@example.com", Role: reqctx.RoleAdmin, TokenID: "tok-admin",
	}))
	g.GET("/stats", h.Stats)
	g.PATCH("/users/:id", h.UpdateUser)
	g.POST("/sessions/:tokenId/revoke", h.RevokeSession)
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestHandler_Stats(t *testing.T) {
	e := newHandlerServer(newFixture(nil))

	code, body := call(t, e, http.MethodGet, "/api/admin/stats", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["stats"], "recentErrors")
}

func TestHandler_UpdateUser(t *testing.T) {
	f := newFixture(nil)
	e := newHandlerServer(f)

	code, _ := call(t, e, http.MethodPatch, "/api/admin/users/2", `{"is_active":false}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []int64{2}, f.sessions.revokedUsers)

	code, body := call(t, e, http.MethodPatch, "/api/admin/users/1", `{"role":"user"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "you cannot edit your own account", body["error"])

	code, _ = call(t, e, http.MethodPatch, "/api/admin/users/zero", `{"role":"user"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, e, http.MethodPatch, "/api/admin/users/2", `{"role":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandler_RevokeSession(t *testing.T) {
	f := newFixture(nil)
	e := newHandlerServer(f)

	code, body := call(t, e, http.MethodPost, "/api/admin/sessions/tok-9/revoke", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []string{"tok-9"}, f.sessions.revokedTokens)
}
