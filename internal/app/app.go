// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (DB pool, Redis client,
// Echo instance, metrics) and wires the plugins together.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/arelclub/clubgate/internal/apperror"
	"github.com/arelclub/clubgate/internal/config"
	"github.com/arelclub/clubgate/internal/maintenance"
	"github.com/arelclub/clubgate/internal/middleware"
	"github.com/arelclub/clubgate/internal/observability"
	"github.com/arelclub/clubgate/internal/plugins/admin"
	"github.com/arelclub/clubgate/internal/plugins/audit"
	"github.com/arelclub/clubgate/internal/plugins/auth"
	"github.com/arelclub/clubgate/internal/plugins/contact"
	"github.com/arelclub/clubgate/internal/plugins/ratelimit"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 10 * time.Second

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all plugins.
	DB *sql.DB

	// Redis is optional and caches admin stats. Nil when not configured.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// Metrics is nil when METRICS_ENABLED is false.
	Metrics *observability.Metrics

	// StartedAt is reported as uptime by health and stats.
	StartedAt time.Time

	services services
}

// services are the wired plugin services the routes and background jobs use.
type services struct {
	audit    audit.AuditService
	auth     auth.AuthService
	sessions auth.SessionRepository
	ledger   ratelimit.Ledger
	policies ratelimit.Policies
	contact  contact.ContactService
	admin    admin.AdminService
}

// New creates the App, wires every plugin, and configures Echo with global
// middleware and error handling. Call RegisterRoutes before Run.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) (*App, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// c.RealIP() must return the actual client behind Railway/nginx: the
	// limiter, audit log and session records all depend on it.
	if err := middleware.TrustedProxies(e, cfg.TrustedProxies); err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Echo:      e,
		StartedAt: time.Now(),
	}
	if cfg.MetricsEnabled {
		a.Metrics = observability.NewMetrics()
	}

	a.wire()
	a.setupMiddleware()
	e.HTTPErrorHandler = a.errorHandler

	return a, nil
}

// wire builds repositories and services bottom-up.
func (a *App) wire() {
	cfg := a.Config

	auditService := audit.NewAuditService(audit.NewAuditRepository(a.DB))

	users := auth.NewUserRepository(a.DB)
	sessions := auth.NewSessionRepository(a.DB)
	tokens := auth.NewTokenCodec(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	authService := auth.NewAuthService(users, sessions, tokens, auditService, a.Metrics, cfg.Auth.BcryptCost)

	ledger := ratelimit.NewLedger(ratelimit.NewLedgerRepository(a.DB), auditService, a.Metrics)
	contactService := contact.NewContactService(contact.NewContactRepository(a.DB), auditService)

	adminService := admin.NewAdminService(users, sessions, contactService, auditService,
		admin.NewStatsCache(a.Redis, cfg.Redis.StatsTTL), a.StartedAt)

	a.services = services{
		audit:    auditService,
		auth:     authService,
		sessions: sessions,
		ledger:   ledger,
		policies: ratelimit.PoliciesFromConfig(cfg.RateLimit),
		contact:  contactService,
		admin:    adminService,
	}
}

// setupMiddleware registers global middleware, outermost first.
func (a *App) setupMiddleware() {
	e := a.Echo

	// Client address and user agent for everything below.
	e.Use(middleware.RequestInfo())

	// Request logging and metrics see the final status because AccessLog
	// resolves handler errors before returning.
	e.Use(middleware.RequestLogger())
	e.Use(a.Metrics.Middleware())
	e.Use(audit.AccessLog(a.services.audit))

	// Panics become 500s inside AccessLog so they are recorded as ERROR.
	e.Use(middleware.Recovery())

	e.Use(middleware.SecurityHeaders(a.Config.IsDevelopment()))
	e.Use(middleware.CORS(a.Config.AllowedOrigins()))
	e.Use(echomw.BodyLimit(a.Config.BodyLimit))
}

// errorHandler renders every error as {success:false, error}. Validation
// errors add the field list, rate limiting adds retryAfter. Internal causes
// are logged, and shown to the client only in development.
func (a *App) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := map[string]any{
		"success": false,
		"error":   "An unexpected error occurred. Please try again.",
	}

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		body["error"] = appErr.Message
		if len(appErr.Details) > 0 {
			body["errors"] = appErr.Details
		}
		if appErr.RetryAfter > 0 {
			body["retryAfter"] = appErr.RetryAfter
			c.Response().Header().Set(echo.HeaderRetryAfter, fmt.Sprint(appErr.RetryAfter))
		}
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
			if a.Config.IsDevelopment() {
				body["detail"] = appErr.Internal.Error()
			}
		}

	case errors.As(err, &echoErr):
		code = echoErr.Code
		body["error"] = defaultErrorMessage(code)

	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
		)
		if a.Config.IsDevelopment() {
			body["detail"] = err.Error()
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}

// defaultErrorMessage returns a user-friendly message for router and
// framework errors that carry no domain message.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusUnauthorized:
		return "Authentication required."
	case http.StatusForbidden:
		return "You don't have permission to access this resource."
	case http.StatusNotFound:
		return "Route not found."
	case http.StatusMethodNotAllowed:
		return "This method is not allowed."
	case http.StatusRequestEntityTooLarge:
		return "The request body is too large."
	case http.StatusTooManyRequests:
		return "Too many requests. Please try again later."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

// Bootstrap performs one-time startup work that needs the database: seeding
// the configured admin account.
func (a *App) Bootstrap(ctx context.Context) error {
	cfg := a.Config.Auth
	return a.services.auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
}

// maintenanceRunner builds the housekeeping job: stale limiter windows and
// sessions past the retention horizon.
func (a *App) maintenanceRunner() *maintenance.Runner {
	s := a.services
	retention := a.Config.Auth.SessionRetention

	return maintenance.NewRunner(a.Config.RateLimit.CompactInterval, a.Metrics,
		maintenance.Task{
			Name: "ratelimit_compact",
			Run: func(ctx context.Context) (int64, error) {
				return s.ledger.Compact(ctx, s.policies.LongestWindow())
			},
		},
		maintenance.Task{
			Name: "session_purge",
			Run: func(ctx context.Context) (int64, error) {
				return s.sessions.PurgeExpired(ctx, time.Now().Add(-retention))
			},
		},
	)
}

// Run serves HTTP and runs maintenance until ctx is cancelled, then drains
// in-flight requests. It returns the first fatal error.
func (a *App) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting clubgate server",
			slog.String("addr", addr),
			slog.String("env", a.Config.Env),
		)
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.maintenanceRunner().Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
