package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (AuditRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewAuditRepository(db), mock, db
}

func TestInsert_SetsID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+logs\b`).
		WithArgs("SECURITY", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"10.0.0.1", "", sqlmock.AnyArg(), "login failed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(17, 1))

	e := &Entry{Type: CategorySecurity, IP: "10.0.0.1", Message: "login failed"}
	require.NoError(t, repo.Insert(context.Background(), e))
	assert.Equal(t, int64(17), e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_FilteredByType(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM logs WHERE type = \?`).
		WithArgs("ERROR").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "type", "method", "path", "status", "duration_ms", "ip", "user_agent", "user_id", "message", "created_at"}).
		AddRow(9, "ERROR", "GET", "/api/x", 500, 12, "1.2.3.4", "ua", nil, "GET /api/x 500", created)
	mock.ExpectQuery(`(?s)SELECT id, type.*FROM logs WHERE type = \?.*LIMIT \? OFFSET \?`).
		WithArgs("ERROR", 50, 0).
		WillReturnRows(rows)

	entries, total, err := repo.List(context.Background(), CategoryError, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, CategoryError, entries[0].Type)
	assert.Equal(t, 500, entries[0].Status)
	assert.Nil(t, entries[0].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_AllTypes(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM logs$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`(?s)SELECT id, type.*FROM logs\s+ORDER BY`).
		WithArgs(10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "method", "path", "status", "duration_ms", "ip", "user_agent", "user_id", "message", "created_at"}))

	entries, total, err := repo.List(context.Background(), "", 10, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}
