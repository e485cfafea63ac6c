package middleware

import (
	"errors"
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

func TestRecovery_ReturnsInternalError(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/boom", nil), httptest.NewRecorder())

	err := Recovery()(func(echo.Context) error { panic("kaboom") })(c)
	require.Error(t, err)
	assert.True(t, apperror.IsType(err, apperror.TypeInternal))
	assert.Equal(t, http.StatusInternalServerError, apperror.SafeCode(err))
	assert.NotContains(t, apperror.SafeMessage(err), "kaboom")
}

func TestRequestInfo_SeedsContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.20:4000"
	req.Header.Set("User-Agent", "curl/8")
	c := e.NewContext(req, httptest.NewRecorder())

	var got reqctx.Info
	err := RequestInfo()(func(c echo.Context) error {
		got = reqctx.From(c.Request().Context())
		return nil
	})(c)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.20", got.ClientAddr)
	assert.Equal(t, "curl/8", got.UserAgent)
	assert.Nil(t, got.Principal)
}

func TestRequestLogger_PassesErrorThrough(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	want := errors.New("handler failed")

	err := RequestLogger()(func(echo.Context) error { return want })(c)
	assert.ErrorIs(t, err, want)
}

func TestIPExtractor(t *testing.T) {
	extract, err := NewIPExtractor([]string{"10.0.0.0/8", " "})
	require.NoError(t, err)

	tests := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{"untrusted peer ignores headers", "203.0.113.5:1000", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.5"},
		{"trusted peer real ip", "10.1.2.3:1000", map[string]string{"X-Real-IP": " 198.51.100.1 "}, "198.51.100.1"},
		{"trusted peer xff skips trusted hops", "10.1.2.3:1000", map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.9"}, "198.51.100.2"},
		{"trusted peer no headers", "10.1.2.3:1000", nil, "10.1.2.3"},
		{"spoofed leftmost hop ignored", "10.1.2.3:1000", map[string]string{"X-Forwarded-For": "1.1.1.1, 198.51.100.7"}, "198.51.100.7"},
		{"garbage left of client ignored", "10.1.2.3:1000", map[string]string{"X-Forwarded-For": strings.Repeat("x", 60) + ", 203.0.113.9"}, "203.0.113.9"},
		{"garbage xff falls back to peer", "10.1.2.3:1000", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.1.2.3"},
		{"oversize xff falls back to peer", "10.1.2.3:1000", map[string]string{"X-Forwarded-For": strings.Repeat("x", 60)}, "10.1.2.3"},
		{"garbage real ip falls back to peer", "10.1.2.3:1000", map[string]string{"X-Real-IP": strings.Repeat("1", 50)}, "10.1.2.3"},
		{"all hops trusted", "10.1.2.3:1000", map[string]string{"X-Forwarded-For": "10.9.9.9, 10.0.0.9"}, "10.9.9.9"},
		{"ipv6 canonicalized", "10.1.2.3:1000", map[string]string{"X-Forwarded-For": "2001:DB8:0:0::1"}, "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extract(req))
		})
	}

	_, err = NewIPExtractor([]string{"not-a-cidr"})
	assert.Error(t, err)
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders(false))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	h := rec.Header()
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Contains(t, h.Get("Content-Security-Policy"), "default-src 'self'")
	assert.Contains(t, h.Get("Strict-Transport-Security"), "max-age=31536000")

	// No HSTS in development.
	e = echo.New()
	e.Use(SecurityHeaders(true))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestCORS(t *testing.T) {
	e := echo.New()
	e.Use(CORS([]string{"https://club.example/", ""}))
	e.GET("/api/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
		req.Header.Set("Origin", "https://club.example")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://club.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("simple request exposes retry hint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://club.example")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Retry-After", rec.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
