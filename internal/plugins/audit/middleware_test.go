package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRecorder captures entries in memory.
type recordingRecorder struct {
	entries []Entry
}

func (r *recordingRecorder) Record(_ context.Context, e Entry) {
	r.entries = append(r.entries, e)
}

func TestAccessLog_RecordsStatusAfterErrorHandling(t *testing.T) {
	e := echo.New()
	rec := &recordingRecorder{}
	e.Use(AccessLog(rec))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})

	for _, path := range []string{"/ok", "/boom"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, rec.entries, 2)
	assert.Equal(t, CategoryAccess, rec.entries[0].Type)
	assert.Equal(t, http.StatusOK, rec.entries[0].Status)
	assert.Equal(t, "/ok", rec.entries[0].Path)
	assert.Equal(t, CategoryError, rec.entries[1].Type)
	assert.Equal(t, http.StatusInternalServerError, rec.entries[1].Status)
}
