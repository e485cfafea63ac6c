package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/arelclub/clubgate/internal/apperror"
)

// mysqlErrDuplicateEntry is ER_DUP_ENTRY.
const mysqlErrDuplicateEntry = 1062

// UserRepository defines the data access contract for user operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	// Create inserts user and sets its ID. A unique-key collision on email
	// or username returns apperror.Conflict.
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Exists reports whether either the email or the username is taken.
	Exists(ctx context.Context, email, username string) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error

	// Admin operations.
	ListUsers(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id int64, role string) error
	UpdateActive(ctx context.Context, id int64, active bool) error
	CountUsers(ctx context.Context) (int, error)
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// userColumns is the column list scanned by scanUser.
const userColumns = `id, username, email, password_hash, role, is_active, created_at, last_login_at`

// Create inserts a new user row into the users table.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (username, email, password_hash, role, is_active, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return apperror.NewConflict("this email or username is already registered")
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting user id: %w", err)
	}
	user.ID = id
	return nil
}

// FindByID retrieves a user by id.
// Returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by their (lower-cased) email address.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return user, nil
}

// Exists is the pre-insert duplicate check used by registration, so the
// expensive hash is skipped for obvious duplicates.
func (r *userRepository) Exists(ctx context.Context, email, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? OR username = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return exists, nil
}

// UpdateLastLogin stamps last_login_at.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at, id); err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

// --- Admin Operations ---

// ListUsers returns all users, newest first. The password hash is left out
// of the query on purpose.
func (r *userRepository) ListUsers(ctx context.Context) ([]User, error) {
	query := `SELECT id, username, email, role, is_active, created_at, last_login_at
	          FROM users ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		var lastLogin sql.NullTime
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt, &lastLogin); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		if lastLogin.Valid {
			u.LastLoginAt = &lastLogin.Time
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateRole sets the user's role.
func (r *userRepository) UpdateRole(ctx context.Context, id int64, role string) error {
	return r.updateOne(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
}

// UpdateActive enables or disables the account.
func (r *userRepository) UpdateActive(ctx context.Context, id int64, active bool) error {
	return r.updateOne(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, id)
}

// updateOne runs a single-row update and maps "no such row" to NotFound.
// MariaDB reports 0 affected rows when the value is unchanged, so a miss is
// confirmed with a lookup before reporting NotFound.
func (r *userRepository) updateOne(ctx context.Context, query string, value any, id int64) error {
	result, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking user: %w", err)
	}
	if !exists {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// CountUsers returns the total number of registered users.
func (r *userRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// scanUser scans one userColumns row.
func scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &lastLogin); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return u, nil
}

// isDuplicate reports whether err is a MariaDB unique-key violation.
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry
}
