package audit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// AccessLog returns middleware that records one entry per completed
// exchange: ACCESS normally, ERROR when the response is a 5xx. Handler
// errors are resolved through Echo's error handler first so the recorded
// status is the one the client saw.
func AccessLog(rec Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status

			category := CategoryAccess
			if status >= http.StatusInternalServerError {
				category = CategoryError
			}

			rec.Record(req.Context(), Entry{
				Type:       category,
				Method:     req.Method,
				Path:       req.URL.Path,
				Status:     status,
				DurationMS: time.Since(start).Milliseconds(),
				Message:    fmt.Sprintf("%s %s %d", req.Method, req.URL.Path, status),
			})
			return nil
		}
	}
}
