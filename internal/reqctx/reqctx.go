// Package reqctx carries per-request identity through context.Context. The
// record is immutable: authentication derives a new record instead of
// mutating the one seeded at the edge, so downstream code can read it
// without locks.
package reqctx

import "context"

// Roles a principal can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the authenticated account behind a request, as proven by a
// verified token with a live session.
type Principal struct {
	UserID   int64
	Username string
	Email    string
	Role     string
	TokenID  string
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Info is the request record. Principal is nil until the request passes the
// auth gateway.
type Info struct {
	ClientAddr string
	UserAgent  string
	Principal  *Principal
}

type ctxKey struct{}

// With returns a child context carrying info.
func With(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// From returns the request record, or the zero Info if none was seeded.
func From(ctx context.Context) Info {
	info, _ := ctx.Value(ctxKey{}).(Info)
	return info
}

// WithPrincipal derives a record that adds p to whatever was seeded.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	info := From(ctx)
	info.Principal = &p
	return With(ctx, info)
}

// PrincipalFrom returns the authenticated principal, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	return From(ctx).Principal
}

// UserID returns the authenticated user's id, or 0 for anonymous requests.
func UserID(ctx context.Context) int64 {
	if p := PrincipalFrom(ctx); p != nil {
		return p.UserID
	}
	return 0
}
