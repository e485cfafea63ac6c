package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arelclub/clubgate/internal/reqctx"
)

func TestLimit_SixthLoginIsRejected(t *testing.T) {
	l, _, _, _ := newTestLedger()

	e := echo.New()
	e.POST("/api/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, Limit(l, authPolicy))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req = req.WithContext(reqctx.With(req.Context(), reqctx.Info{ClientAddr: addr}))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, send("198.51.100.4").Code, "attempt %d", i+1)
	}

	rec := send("198.51.100.4")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(900), body["retryAfter"])
	assert.NotEmpty(t, body["error"])

	assert.Equal(t, http.StatusOK, send("198.51.100.5").Code)
}

func TestLimit_RouteTemplateIsTheKey(t *testing.T) {
	l, repo, _, _ := newTestLedger()

	e := echo.New()
	e.DELETE("/api/admin/contacts/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, Limit(l, authPolicy))

	for _, id := range []string{"1", "2", "3"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/admin/contacts/"+id, nil)
		req.RemoteAddr = "192.0.2.1:5555"
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, repo.rows, 1)
	row := repo.rows[[2]string{"192.0.2.1", "auth:/api/admin/contacts/:id"}]
	require.NotNil(t, row)
	assert.Equal(t, 3, row.count)
}
