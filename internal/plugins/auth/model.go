// Package auth handles accounts, bearer tokens, and the server-side session
// registry. A request is authorized only when its token verifies AND the
// session the token names is still open, so logout and admin revocation take
// effect immediately even though tokens are self-contained.
package auth

import (
	"time"
)

// User is a registered account. Accounts are never hard-deleted; admins
// soft-disable them with IsActive.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose in JSON responses.
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login"`
}

// PublicUser is the subset of a user returned alongside a fresh token.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Public returns the login-response view of u.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// Session is one row of the session registry. Validity is never stored; it
// is computed from Revoked and ExpiresAt at check time.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenID   string    `json:"token_id"`
	IP        string    `json:"ip"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`

	// Username and Email are joined from users for the admin listing.
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// IsValid reports whether the session still authorizes requests at now.
func (s *Session) IsValid(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is validated by the service after normalization.
type RegisterInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,strongpassword"`
}

// LoginInput is the input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token string
	User  *User
}
