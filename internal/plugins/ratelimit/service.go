package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arelclub/clubgate/internal/observability"
	"github.com/arelclub/clubgate/internal/plugins/audit"
)

// Ledger decides whether a request may proceed.
type Ledger interface {
	// Admit counts the request and reports whether it fits in the policy's
	// current window. A storage failure admits the request.
	Admit(ctx context.Context, clientAddr, path string, policy Policy) Decision

	// Compact removes counters whose window started more than olderThan ago.
	Compact(ctx context.Context, olderThan time.Duration) (int64, error)
}

type ledger struct {
	repo    LedgerRepository
	audit   audit.Recorder
	metrics *observability.Metrics
	now     func() time.Time
}

// NewLedger creates the ledger. metrics may be nil.
func NewLedger(repo LedgerRepository, rec audit.Recorder, metrics *observability.Metrics) Ledger {
	return &ledger{repo: repo, audit: rec, metrics: metrics, now: time.Now}
}

func (l *ledger) Admit(ctx context.Context, clientAddr, path string, policy Policy) Decision {
	endpoint := policy.key(path)

	count, err := l.repo.Hit(ctx, clientAddr, endpoint, policy.Max, policy.Window, l.now())
	if err != nil {
		slog.Error("rate limit check failed, admitting request",
			slog.String("policy", policy.Name),
			slog.String("endpoint", endpoint),
			slog.Any("error", err),
		)
		return Decision{Allowed: true}
	}

	if count <= policy.Max {
		return Decision{Allowed: true, Count: count}
	}

	l.metrics.RateLimitDenied(policy.Name)
	l.audit.Record(ctx, audit.Entry{
		Type:    audit.CategorySecurity,
		IP:      clientAddr,
		Message: fmt.Sprintf("rate limit hit on %s (%d requests)", endpoint, count),
	})
	return Decision{Count: count, RetryAfter: policy.RetryAfterSeconds()}
}

func (l *ledger) Compact(ctx context.Context, olderThan time.Duration) (int64, error) {
	return l.repo.Purge(ctx, l.now().Add(-olderThan))
}
