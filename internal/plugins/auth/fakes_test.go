package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/arelclub/clubgate/internal/apperror"
	"github.com/arelclub/clubgate/internal/plugins/audit"
)

// memUserRepo is an in-memory UserRepository. The fn fields override single
// methods for failure-path tests.
type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*User

	findByEmailFn     func(ctx context.Context, email string) (*User, error)
	updateLastLoginFn func(ctx context.Context, id int64, at time.Time) error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int64]*User{}}
}

func (m *memUserRepo) Create(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return apperror.NewConflict("this email or username is already registered")
		}
	}
	m.nextID++
	user.ID = m.nextID
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(_ context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NewNotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *memUserRepo) Exists(_ context.Context, email, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *memUserRepo) ListUsers(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []User{}
	for _, u := range m.users {
		cp := *u
		cp.PasswordHash = ""
		out = append(out, cp)
	}
	return out, nil
}

func (m *memUserRepo) UpdateRole(_ context.Context, id int64, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperror.NewNotFound("user not found")
	}
	u.Role = role
	return nil
}

func (m *memUserRepo) UpdateActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperror.NewNotFound("user not found")
	}
	u.IsActive = active
	return nil
}

func (m *memUserRepo) CountUsers(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

// memSessionRepo is an in-memory SessionRepository.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*Session

	openErr    error
	isValidErr error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]*Session{}}
}

func (m *memSessionRepo) Open(_ context.Context, userID int64, tokenID, clientAddr string, ttl time.Duration) error {
	if m.openErr != nil {
		return m.openErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.sessions[tokenID] = &Session{
		ID:        int64(len(m.sessions) + 1),
		UserID:    userID,
		TokenID:   tokenID,
		IP:        clientAddr,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	return nil
}

func (m *memSessionRepo) IsValid(_ context.Context, tokenID string, now time.Time) (bool, error) {
	if m.isValidErr != nil {
		return false, m.isValidErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tokenID]
	return ok && s.IsValid(now), nil
}

func (m *memSessionRepo) Revoke(_ context.Context, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[tokenID]; ok {
		s.Revoked = true
	}
	return nil
}

func (m *memSessionRepo) RevokeAllForUser(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.sessions {
		if s.UserID == userID && !s.Revoked {
			s.Revoked = true
			n++
		}
	}
	return n, nil
}

func (m *memSessionRepo) ListRecent(_ context.Context, limit int) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Session{}
	for _, s := range m.sessions {
		if len(out) == limit {
			break
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *memSessionRepo) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.ExpiresAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// captureRecorder keeps every audit entry in memory.
type captureRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *captureRecorder) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *captureRecorder) has(category audit.Category, substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Type == category && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
