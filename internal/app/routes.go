package app

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/arelclub/clubgate/internal/plugins/admin"
	"github.com/arelclub/clubgate/internal/plugins/audit"
	"github.com/arelclub/clubgate/internal/plugins/auth"
	"github.com/arelclub/clubgate/internal/plugins/contact"
	"github.com/arelclub/clubgate/internal/plugins/ratelimit"
)

// RegisterRoutes sets up all application routes. It registers the
// infrastructure endpoints directly and delegates to each plugin's route
// registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo
	s := a.services

	// --- Infrastructure (no auth) ---

	if a.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))
	}

	// --- API Routes ---
	// Every /api route shares the global policy on top of its own.
	api := e.Group("/api", ratelimit.Limit(s.ledger, s.policies.Global))

	// Health check for Railway and Docker health monitoring.
	api.GET("/health", a.health)

	// auth plugin (public: register, login; authenticated: logout, me)
	authGroup := api.Group("/auth")
	auth.RegisterRoutes(authGroup, auth.NewHandler(s.auth), s.auth,
		ratelimit.Limit(s.ledger, s.policies.Auth))

	// contact plugin (public submission)
	contactHandler := contact.NewHandler(s.contact)
	contact.RegisterRoutes(api, contactHandler, ratelimit.Limit(s.ledger, s.policies.Contact))

	// admin plugin owns the /admin group and mounts the log viewer and
	// contact inbox inside it.
	admin.RegisterRoutes(api, admin.NewHandler(s.admin), s.auth,
		audit.NewHandler(s.audit), contactHandler)

	// --- Static Site ---
	// The club's built frontend, with index.html as the fallback for
	// client-side routes. API and metrics paths never fall through to it.
	if a.Config.StaticDir != "" {
		e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
			Root:  a.Config.StaticDir,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				p := c.Request().URL.Path
				return strings.HasPrefix(p, "/api") || p == "/metrics"
			},
		}))
	}
}
