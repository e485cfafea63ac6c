package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// healthTimeout bounds each dependency probe.
const healthTimeout = 2 * time.Second

// healthResponse is the body of GET /api/health.
type healthResponse struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	Database  string `json:"database"`
	Cache     string `json:"cache"`
	Uptime    int64  `json:"uptime"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// health reports database and cache connectivity. The database is required,
// so a failed ping answers 503. Redis is optional: "disabled" when not
// configured and "error" when unreachable, neither of which degrades status.
func (a *App) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Success:   true,
		Status:    "ok",
		Database:  "ok",
		Cache:     "disabled",
		Uptime:    int64(time.Since(a.StartedAt).Seconds()),
		Version:   a.Config.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if err := a.DB.PingContext(ctx); err != nil {
		slog.Warn("health check: database unreachable", slog.Any("error", err))
		resp.Success = false
		resp.Status = "degraded"
		resp.Database = "error"
	}

	if a.Redis != nil {
		resp.Cache = "ok"
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			slog.Warn("health check: redis unreachable", slog.Any("error", err))
			resp.Cache = "error"
		}
	}

	code := http.StatusOK
	if !resp.Success {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
