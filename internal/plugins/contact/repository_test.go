package contact

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arelclub/clubgate/internal/apperror"
)

func newMockRepo(t *testing.T) (ContactRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContactRepository(db), mock
}

func TestContactRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO contacts`).
		WithArgs("Bob", "bob@example.com", "", "hello there", "10.1.1.1", now).
		WillReturnResult(sqlmock.NewResult(11, 1))

	m := &Message{Name: "Bob", Email: "bob@example.com", Message: "hello there", IPAddress: "10.1.1.1", CreatedAt: now}
	require.NoError(t, repo.Create(context.Background(), m))
	assert.Equal(t, int64(11), m.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_Counts(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(SUM`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "unread"}).AddRow(7, 2))

	c, err := repo.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 7, Unread: 2}, c)
}

func TestContactRepository_DeleteMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`DELETE FROM contacts WHERE id = \?`).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 9)
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))
}

func TestContactRepository_MarkRead(t *testing.T) {
	repo, mock := newMockRepo(t)

	// Already read: zero rows affected but the row exists.
	mock.ExpectExec(`UPDATE contacts SET is_read = TRUE WHERE id = \?`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM contacts WHERE id = \?\)`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	require.NoError(t, repo.MarkRead(context.Background(), 3))

	mock.ExpectExec(`UPDATE contacts SET is_read`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	err := repo.MarkRead(context.Background(), 4)
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, name, email, subject, message, ip_address, is_read, created_at\s+FROM contacts`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "subject", "message", "ip_address", "is_read", "created_at"}).
			AddRow(2, "Bob", "bob@example.com", "", "hello there", "10.1.1.1", false, now))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bob", list[0].Name)
}

