// Package audit records what happens on the server: every completed HTTP
// exchange, authentication outcomes, security-relevant denials, and server
// errors. Entries are append-only rows in the logs table. Writing is
// best-effort: a failed write is logged and dropped, never surfaced to the
// request that triggered it.
package audit

import (
	"strings"
	"time"
)

// Category classifies a log entry. Stored upper-case.
type Category string

const (
	// CategoryAccess is one completed request/response exchange.
	CategoryAccess Category = "ACCESS"

	// CategoryError is a server-side failure (5xx or internal error).
	CategoryError Category = "ERROR"

	// CategorySecurity marks failed logins, rate-limit denials and denied
	// admin access.
	CategorySecurity Category = "SECURITY"

	// CategoryAuth marks successful register, login and logout events.
	CategoryAuth Category = "AUTH"
)

// ParseCategory accepts a category name in any case. Empty input is valid
// and means "no filter".
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case "", CategoryAccess, CategoryError, CategorySecurity, CategoryAuth:
		return c, true
	default:
		return "", false
	}
}

// Entry is one row in the logs table. Request fields are optional because
// AUTH and SECURITY events are not always tied to a finished exchange.
type Entry struct {
	ID         int64     `json:"id"`
	Type       Category  `json:"type"`
	Method     string    `json:"method,omitempty"`
	Path       string    `json:"path,omitempty"`
	Status     int       `json:"status,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent,omitempty"`
	UserID     *int64    `json:"user_id,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// LogPage is one page of the admin log listing.
type LogPage struct {
	Logs  []Entry `json:"logs"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}
