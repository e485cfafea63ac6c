// Package ratelimit is the persistent rate-limit ledger. Counters live in the
// rate_limits table keyed by (client address, endpoint) so every app
// instance behind the proxy shares the same view. The window is fixed, not
// sliding: one row per key, reset when its window_start is older than the
// policy window. A client can therefore get up to twice the maximum through
// across a window boundary.
package ratelimit

import (
	"time"

	"github.com/arelclub/clubgate/internal/config"
)

// Policy is a named (window, max hits) pair. Each policy keeps its own
// counters because the endpoint key is prefixed with the policy name.
type Policy struct {
	Name   string
	Window time.Duration
	Max    int
}

// RetryAfterSeconds is the hint sent with a denial: the whole window.
func (p Policy) RetryAfterSeconds() int {
	secs := int(p.Window / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// key is the stored endpoint column for path under this policy.
func (p Policy) key(path string) string {
	return p.Name + ":" + path
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool

	// Count is the hit count after this request, capped at Max+1.
	Count int

	// RetryAfter is set on denials, in seconds.
	RetryAfter int
}

// Policies are the three limiter instances the API uses.
type Policies struct {
	Auth    Policy
	Contact Policy
	Global  Policy
}

// PoliciesFromConfig builds the policy set from configuration.
func PoliciesFromConfig(cfg config.RateLimitConfig) Policies {
	return Policies{
		Auth:    Policy{Name: "auth", Window: cfg.AuthWindow, Max: cfg.AuthMax},
		Contact: Policy{Name: "contact", Window: cfg.ContactWindow, Max: cfg.ContactMax},
		Global:  Policy{Name: "global", Window: cfg.GlobalWindow, Max: cfg.GlobalMax},
	}
}

// LongestWindow is the compaction horizon: no row older than this can still
// be inside an open window for any policy.
func (p Policies) LongestWindow() time.Duration {
	longest := p.Auth.Window
	for _, w := range []time.Duration{p.Contact.Window, p.Global.Window} {
		if w > longest {
			longest = w
		}
	}
	return longest
}
