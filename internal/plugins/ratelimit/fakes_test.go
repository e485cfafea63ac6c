package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/arelclub/clubgate/internal/plugins/audit"
)

// memLedgerRepo applies the same fixed-window rules as the SQL upsert.
type memLedgerRepo struct {
	mu   sync.Mutex
	rows map[[2]string]*memRow
	err  error
}

type memRow struct {
	count       int
	windowStart time.Time
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{rows: map[[2]string]*memRow{}}
}

func (m *memLedgerRepo) Hit(_ context.Context, ip, endpoint string, max int, window time.Duration, now time.Time) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := [2]string{ip, endpoint}
	row, ok := m.rows[k]
	switch {
	case !ok:
		row = &memRow{count: 1, windowStart: now}
		m.rows[k] = row
	case !row.windowStart.After(now.Add(-window)):
		row.count, row.windowStart = 1, now
	case row.count >= max:
		row.count = max + 1
	default:
		row.count++
	}
	return row.count, nil
}

func (m *memLedgerRepo) Purge(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, row := range m.rows {
		if row.windowStart.Before(before) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

type captureRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *captureRecorder) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *captureRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
