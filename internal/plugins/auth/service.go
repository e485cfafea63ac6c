package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/arelclub/clubgate/internal/apperror"
	"github.com/arelclub/clubgate/internal/observability"
	"github.com/arelclub/clubgate/internal/plugins/audit"
	"github.com/arelclub/clubgate/internal/reqctx"
	"github.com/arelclub/clubgate/internal/sanitize"
	"github.com/arelclub/clubgate/internal/validate"
)

// invalidCredentialMessage is shared by every login failure so the response
// never reveals whether the account exists.
const invalidCredentialMessage = "invalid email or password"

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repositories directly.
type AuthService interface {
	// Register creates a user account with the "user" role.
	Register(ctx context.Context, input RegisterInput) (*User, error)

	// Login verifies credentials, issues a token, and opens its session.
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)

	// Authenticate runs the gateway checks on an Authorization header value
	// and returns the principal. requireAdmin adds the role check.
	Authenticate(ctx context.Context, authorization string, requireAdmin bool) (*reqctx.Principal, error)

	// Logout revokes the principal's session. Safe to repeat.
	Logout(ctx context.Context, principal *reqctx.Principal) error

	// Me returns the current record for an authenticated user.
	Me(ctx context.Context, userID int64) (*User, error)

	// EnsureAdmin creates the bootstrap admin account if no account with
	// that email exists yet.
	EnsureAdmin(ctx context.Context, username, email, password string) error
}

// authService implements AuthService with bcrypt hashing, signed tokens, and
// the MariaDB session registry.
type authService struct {
	users      UserRepository
	sessions   SessionRepository
	tokens     *TokenCodec
	audit      audit.Recorder
	metrics    *observability.Metrics
	bcryptCost int
	now        func() time.Time

	// dummyHash is compared against when the account doesn't exist so an
	// unknown email costs the same as a wrong password.
	dummyHash     string
	dummyHashOnce sync.Once
}

// NewAuthService creates a new auth service with the given dependencies.
// metrics may be nil.
func NewAuthService(users UserRepository, sessions SessionRepository, tokens *TokenCodec,
	rec audit.Recorder, metrics *observability.Metrics, bcryptCost int) AuthService {
	return &authService{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		audit:      rec,
		metrics:    metrics,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register validates and normalizes the input, checks uniqueness, hashes the
// password, and persists the user.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = sanitize.Email(input.Email)

	if msgs := validate.Struct(input); len(msgs) > 0 {
		return nil, apperror.NewValidation(msgs[0], msgs...)
	}

	// Check duplicates before doing expensive hashing. The unique keys still
	// catch a concurrent registration that slips past this check.
	exists, err := s.users.Exists(ctx, input.Email, input.Username)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking duplicates: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("this email or username is already registered")
	}

	hash, err := hashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	user := &User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         reqctx.RoleUser,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	s.audit.Record(ctx, audit.Entry{
		Type:    audit.CategoryAuth,
		UserID:  &user.ID,
		Message: "new user registered: " + user.Email,
	})
	return user, nil
}

// Login authenticates a user by email and password. Unknown, inactive and
// wrong-password attempts all return the same InvalidCredential rejection.
// Opening the session is part of the login: if it fails, no token is
// returned. The last-login stamp is best-effort.
func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := sanitize.Email(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperror.NewValidation("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !apperror.IsType(err, apperror.TypeNotFound) {
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if user == nil || !user.IsActive {
		verifyPassword(input.Password, s.getDummyHash())
		s.rejectLogin(ctx, "unknown_account", "failed login attempt: "+email)
		return nil, apperror.NewRejected(apperror.TypeInvalidCredential, invalidCredentialMessage)
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		s.rejectLogin(ctx, "bad_password", "failed login (wrong password): "+email)
		return nil, apperror.NewRejected(apperror.TypeInvalidCredential, invalidCredentialMessage)
	}

	token, tokenID, err := s.tokens.Issue(Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	clientAddr := reqctx.From(ctx).ClientAddr
	if err := s.sessions.Open(ctx, user.ID, tokenID, clientAddr, s.tokens.TTL()); err != nil {
		return nil, apperror.NewInternal(err)
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		slog.Warn("failed to update last login",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
	} else {
		user.LastLoginAt = &now
	}

	s.audit.Record(ctx, audit.Entry{
		Type:    audit.CategoryAuth,
		UserID:  &user.ID,
		Message: "user logged in: " + user.Email,
	})

	return &LoginResult{Token: token, User: user}, nil
}

func (s *authService) rejectLogin(ctx context.Context, reason, message string) {
	s.metrics.LoginFailed(reason)
	s.audit.Record(ctx, audit.Entry{Type: audit.CategorySecurity, Message: message})
}

// getDummyHash lazily hashes a throwaway password at the configured cost.
func (s *authService) getDummyHash() string {
	s.dummyHashOnce.Do(func() {
		hash, err := hashPassword("dummy-password-for-timing", s.bcryptCost)
		if err != nil {
			slog.Error("generating dummy hash", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Authenticate walks the gateway: credential present, signature verified,
// session valid, role sufficient. Each failure is a distinct rejection type.
// A session-store error fails closed with a 500.
func (s *authService) Authenticate(ctx context.Context, authorization string, requireAdmin bool) (*reqctx.Principal, error) {
	token, ok := bearerToken(authorization)
	if !ok {
		return nil, apperror.NewRejected(apperror.TypeMissingCredential, "authentication required")
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperror.NewRejected(apperror.TypeInvalidToken, "invalid or expired token")
	}

	valid, err := s.sessions.IsValid(ctx, claims.ID, s.now())
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if !valid {
		return nil, apperror.NewRejected(apperror.TypeSessionRevoked, "session expired or revoked")
	}

	principal := &reqctx.Principal{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
		TokenID:  claims.ID,
	}

	if requireAdmin && !principal.IsAdmin() {
		s.audit.Record(ctx, audit.Entry{
			Type:    audit.CategorySecurity,
			UserID:  &principal.UserID,
			Message: "admin route denied for " + principal.Email,
		})
		denied := apperror.NewForbidden("admin privileges required")
		denied.Type = apperror.TypeInsufficientPrivilege
		return nil, denied
	}

	return principal, nil
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Logout revokes the session named by the verified token id.
func (s *authService) Logout(ctx context.Context, principal *reqctx.Principal) error {
	if principal == nil {
		return apperror.NewMissingContext()
	}
	if err := s.sessions.Revoke(ctx, principal.TokenID); err != nil {
		return apperror.NewInternal(err)
	}

	s.audit.Record(ctx, audit.Entry{
		Type:    audit.CategoryAuth,
		UserID:  &principal.UserID,
		Message: "user logged out: " + principal.Email,
	})
	return nil
}

// Me returns the stored user, or NotFound if the account is gone.
func (s *authService) Me(ctx context.Context, userID int64) (*User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperror.IsType(err, apperror.TypeNotFound) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}
	return user, nil
}

// EnsureAdmin seeds the first admin from configuration. The password is not
// run through the strength rules so operators can pick their own policy.
func (s *authService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	email = sanitize.Email(email)
	if email == "" || password == "" {
		return nil
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !apperror.IsType(err, apperror.TypeNotFound) {
		return fmt.Errorf("looking up admin: %w", err)
	}

	hash, err := hashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}

	admin := &User{
		Username:     strings.ToLower(strings.TrimSpace(username)),
		Email:        email,
		PasswordHash: hash,
		Role:         reqctx.RoleAdmin,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}

	slog.Info("admin account created", slog.String("email", email))
	return nil
}
