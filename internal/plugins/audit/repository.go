package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AuditRepository defines the data access contract for the logs table.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type AuditRepository interface {
	// Insert appends one entry.
	Insert(ctx context.Context, entry *Entry) error

	// List returns entries newest first, optionally filtered by category,
	// plus the total matching count for pagination.
	List(ctx context.Context, category Category, limit, offset int) ([]Entry, int, error)

	// Count returns the total number of stored entries.
	Count(ctx context.Context) (int, error)

	// CountSince counts entries of one category created at or after since.
	CountSince(ctx context.Context, category Category, since time.Time) (int, error)
}

// auditRepository implements AuditRepository with MariaDB queries.
type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new repository backed by the given DB pool.
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Insert writes an entry. Request fields are NULL for entries that don't
// describe an HTTP exchange.
func (r *auditRepository) Insert(ctx context.Context, entry *Entry) error {
	query := `INSERT INTO logs (type, method, path, status, duration_ms, ip, user_agent, user_id, message, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		string(entry.Type),
		nullString(entry.Method),
		nullString(entry.Path),
		nullInt(int64(entry.Status)),
		sql.NullInt64{Int64: entry.DurationMS, Valid: entry.Method != ""},
		entry.IP,
		truncate(entry.UserAgent, 500),
		entry.UserID,
		entry.Message,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting log entry id: %w", err)
	}
	entry.ID = id
	return nil
}

// List returns a page of entries. An empty category lists every type.
func (r *auditRepository) List(ctx context.Context, category Category, limit, offset int) ([]Entry, int, error) {
	where := ""
	args := []any{}
	if category != "" {
		where = " WHERE type = ?"
		args = append(args, string(category))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting log entries: %w", err)
	}

	query := `SELECT id, type, method, path, status, duration_ms, ip, user_agent, user_id, message, created_at
	          FROM logs` + where + `
	          ORDER BY created_at DESC, id DESC
	          LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing log entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			typ      string
			method   sql.NullString
			path     sql.NullString
			status   sql.NullInt64
			duration sql.NullInt64
			userID   sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &typ, &method, &path, &status, &duration,
			&e.IP, &e.UserAgent, &userID, &e.Message, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning log entry: %w", err)
		}
		e.Type = Category(typ)
		e.Method = method.String
		e.Path = path.String
		e.Status = int(status.Int64)
		e.DurationMS = duration.Int64
		if userID.Valid {
			id := userID.Int64
			e.UserID = &id
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// Count returns the number of rows in logs.
func (r *auditRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting logs: %w", err)
	}
	return n, nil
}

// CountSince counts one category within a trailing time range.
func (r *auditRepository) CountSince(ctx context.Context, category Category, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM logs WHERE type = ? AND created_at >= ?`,
		string(category), since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s logs: %w", category, err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
