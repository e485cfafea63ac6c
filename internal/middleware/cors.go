package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORS returns middleware that answers cross-origin requests from
// allowedOrigins. The API authenticates with bearer tokens rather than
// cookies, so credentials are never allowed. Requests without an Origin
// header, or from an unlisted origin, pass through without CORS headers and
// the browser enforces the block.
func CORS(allowedOrigins []string) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		if o != "" {
			originSet[o] = true
		}
	}
	if allowAll {
		slog.Warn("CORS allows every origin; set FRONTEND_URL and CORS_ORIGINS explicitly in production")
	}

	allowMethods := strings.Join([]string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
	}, ", ")
	allowHeaders := strings.Join([]string{
		echo.HeaderContentType,
		echo.HeaderAuthorization,
		"X-Requested-With",
	}, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get(echo.HeaderOrigin)

			if origin == "" || !(allowAll || originSet[origin]) {
				return next(c)
			}

			res.Header().Set(echo.HeaderAccessControlAllowOrigin, origin)
			res.Header().Add(echo.HeaderVary, echo.HeaderOrigin)

			if req.Method == http.MethodOptions {
				res.Header().Set(echo.HeaderAccessControlAllowMethods, allowMethods)
				res.Header().Set(echo.HeaderAccessControlAllowHeaders, allowHeaders)
				res.Header().Set(echo.HeaderAccessControlMaxAge, "3600")
				return c.NoContent(http.StatusNoContent)
			}

			// Let the front end read the rate-limit hint.
			res.Header().Set(echo.HeaderAccessControlExposeHeaders, echo.HeaderRetryAfter)
			return next(c)
		}
	}
}
