package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LedgerRepository is the storage contract for hit counters.
type LedgerRepository interface {
	// Hit counts one request against (ip, endpoint) and returns the count
	// after the write. The count saturates at max+1.
	Hit(ctx context.Context, ip, endpoint string, max int, window time.Duration, now time.Time) (int, error)

	// Purge deletes rows whose window started before the cutoff.
	Purge(ctx context.Context, before time.Time) (int64, error)
}

type ledgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a ledger repository backed by db.
func NewLedgerRepository(db *sql.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// hitQuery resets a stale window or increments the count in one statement.
// hit_count is assigned first so both IFs see the old window_start. The new
// count is handed back through LAST_INSERT_ID(expr), which the driver reports
// as the statement's insert id on the same connection.
const hitQuery = `INSERT INTO rate_limits (ip, endpoint, hit_count, window_start)
VALUES (?, ?, LAST_INSERT_ID(1), ?)
ON DUPLICATE KEY UPDATE
	hit_count = LAST_INSERT_ID(IF(window_start <= ?, 1, IF(hit_count >= ?, ?, hit_count + 1))),
	window_start = IF(window_start <= ?, ?, window_start)`

func (r *ledgerRepository) Hit(ctx context.Context, ip, endpoint string, max int, window time.Duration, now time.Time) (int, error) {
	now = now.UTC()
	cutoff := now.Add(-window)

	result, err := r.db.ExecContext(ctx, hitQuery,
		ip, endpoint, now,
		cutoff, max, max+1,
		cutoff, now,
	)
	if err != nil {
		return 0, fmt.Errorf("recording hit: %w", err)
	}

	count, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading hit count: %w", err)
	}
	// Some proxies drop the insert id on the first insert.
	if count < 1 {
		count = 1
	}
	return int(count), nil
}

func (r *ledgerRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rate_limits WHERE window_start < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging rate limits: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
