package contact

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arelclub/clubgate/internal/apperror"
)

// ContactRepository is the data access contract for contact messages.
type ContactRepository interface {
	Create(ctx context.Context, m *Message) error
	List(ctx context.Context) ([]Message, error)
	MarkRead(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Counts(ctx context.Context) (Counts, error)
}

type contactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a contact repository backed by db.
func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, m *Message) error {
	query := `INSERT INTO contacts (name, email, subject, message, ip_address, is_read, created_at)
	          VALUES (?, ?, ?, ?, ?, FALSE, ?)`

	result, err := r.db.ExecContext(ctx, query, m.Name, m.Email, m.Subject, m.Message, m.IPAddress, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting contact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting contact id: %w", err)
	}
	m.ID = id
	return nil
}

func (r *contactRepository) List(ctx context.Context) ([]Message, error) {
	query := `SELECT id, name, email, subject, message, ip_address, is_read, created_at
	          FROM contacts ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message,
			&m.IPAddress, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning contact row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead is idempotent for existing rows. MariaDB reports zero affected
// rows for an already-read message, so a miss is confirmed before NotFound.
func (r *contactRepository) MarkRead(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE contacts SET is_read = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking contact read: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM contacts WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking contact: %w", err)
	}
	if !exists {
		return apperror.NewNotFound("message not found")
	}
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("message not found")
	}
	return nil
}

func (r *contactRepository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_read = FALSE THEN 1 ELSE 0 END), 0) FROM contacts`
	if err := r.db.QueryRowContext(ctx, query).Scan(&c.Total, &c.Unread); err != nil {
		return Counts{}, fmt.Errorf("counting contacts: %w", err)
	}
	return c, nil
}
