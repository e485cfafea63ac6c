package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SessionRepository is the session registry: the server-side record of which
// issued tokens may still be used.
type SessionRepository interface {
	// Open records a new, unrevoked session expiring ttl from now.
	Open(ctx context.Context, userID int64, tokenID, clientAddr string, ttl time.Duration) error

	// IsValid reports whether tokenID names an unrevoked, unexpired session
	// at now. An unknown token id is treated as revoked.
	IsValid(ctx context.Context, tokenID string, now time.Time) (bool, error)

	// Revoke marks the session revoked. Revoking an unknown or already
	// revoked session is not an error.
	Revoke(ctx context.Context, tokenID string) error

	// RevokeAllForUser revokes every open session of a user and returns how
	// many were affected.
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)

	// ListRecent returns the newest sessions joined with their owner.
	ListRecent(ctx context.Context, limit int) ([]Session, error)

	// PurgeExpired deletes sessions that expired before the cutoff.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// sessionRepository implements SessionRepository with MariaDB queries.
type sessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new session registry backed by db.
func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db, now: time.Now}
}

// Open inserts the session row. token_id is unique, so reusing an id fails.
func (r *sessionRepository) Open(ctx context.Context, userID int64, tokenID, clientAddr string, ttl time.Duration) error {
	now := r.now().UTC()
	query := `INSERT INTO sessions (user_id, token_id, ip, expires_at, revoked, created_at)
	          VALUES (?, ?, ?, ?, FALSE, ?)`

	if _, err := r.db.ExecContext(ctx, query, userID, tokenID, clientAddr, now.Add(ttl), now); err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	return nil
}

// IsValid computes validity in SQL against the caller's clock.
func (r *sessionRepository) IsValid(ctx context.Context, tokenID string, now time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM sessions
	          WHERE token_id = ? AND revoked = FALSE AND expires_at > ?)`

	var valid bool
	if err := r.db.QueryRowContext(ctx, query, tokenID, now.UTC()).Scan(&valid); err != nil {
		return false, fmt.Errorf("checking session: %w", err)
	}
	return valid, nil
}

// Revoke is a single idempotent UPDATE.
func (r *sessionRepository) Revoke(ctx context.Context, tokenID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked = TRUE WHERE token_id = ?`, tokenID); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// RevokeAllForUser closes every open session of userID.
func (r *sessionRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = TRUE WHERE user_id = ? AND revoked = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoking user sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// ListRecent joins users for the admin view.
func (r *sessionRepository) ListRecent(ctx context.Context, limit int) ([]Session, error) {
	query := `SELECT s.id, s.user_id, s.token_id, s.ip, s.expires_at, s.revoked, s.created_at,
	                 u.username, u.email
	          FROM sessions s
	          JOIN users u ON u.id = s.user_id
	          ORDER BY s.created_at DESC, s.id DESC
	          LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.TokenID, &s.IP, &s.ExpiresAt, &s.Revoked,
			&s.CreatedAt, &s.Username, &s.Email); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// PurgeExpired garbage-collects the registry. A purged session would have
// been invalid anyway, so this never changes an authorization outcome.
func (r *sessionRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
