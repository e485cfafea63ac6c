package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arelclub/clubgate/internal/apperror"
	"github.com/arelclub/clubgate/internal/plugins/audit"
	"github.com/arelclub/clubgate/internal/plugins/auth"
	"github.com/arelclub/clubgate/internal/plugins/contact"
	"github.com/arelclub/clubgate/internal/reqctx"
	"github.com/arelclub/clubgate/internal/validate"
)

// AdminService is the business logic behind the admin API. It depends on
// other plugins through their interfaces.
type AdminService interface {
	// Stats returns the dashboard summary, from cache when fresh.
	Stats(ctx context.Context) (*Stats, error)

	ListUsers(ctx context.Context) ([]auth.User, error)

	// UpdateUser changes another user's role or active flag. Either change
	// revokes all of the target's sessions so the old role or access can't
	// outlive the change.
	UpdateUser(ctx context.Context, actor *reqctx.Principal, id int64, req UpdateUserRequest) error

	ListSessions(ctx context.Context) ([]auth.Session, error)

	// RevokeSession closes one session by token id.
	RevokeSession(ctx context.Context, actor *reqctx.Principal, tokenID string) error
}

type adminService struct {
	users     auth.UserRepository
	sessions  auth.SessionRepository
	contacts  contact.ContactService
	logs      audit.AuditService
	cache     StatsCache
	startedAt time.Time
	now       func() time.Time
}

// NewAdminService creates the admin service. startedAt is the process start
// time used for uptime.
func NewAdminService(users auth.UserRepository, sessions auth.SessionRepository,
	contacts contact.ContactService, logs audit.AuditService, cache StatsCache, startedAt time.Time) AdminService {
	if cache == nil {
		cache = noCache{}
	}
	return &adminService{
		users:     users,
		sessions:  sessions,
		contacts:  contacts,
		logs:      logs,
		cache:     cache,
		startedAt: startedAt,
		now:       time.Now,
	}
}

func (s *adminService) Stats(ctx context.Context) (*Stats, error) {
	if cached, ok := s.cache.Get(ctx); ok {
		return cached, nil
	}

	stats := &Stats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.users.CountUsers(gctx)
		stats.Users = n
		return err
	})
	g.Go(func() error {
		c, err := s.contacts.Counts(gctx)
		stats.Contacts, stats.Unread = c.Total, c.Unread
		return err
	})
	g.Go(func() error {
		n, err := s.logs.Count(gctx)
		stats.TotalLogs = n
		return err
	})
	g.Go(func() error {
		n, err := s.logs.CountRecentErrors(gctx, recentErrorWindow)
		stats.RecentErrors = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domainOrInternal(fmt.Errorf("gathering stats: %w", err))
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	hostname, _ := os.Hostname()
	now := s.now()

	stats.Uptime = now.Sub(s.startedAt).Seconds()
	stats.Memory = MemoryStats{Alloc: mem.Alloc, Sys: mem.Sys, HeapInuse: mem.HeapInuse, NumGC: mem.NumGC}
	stats.Platform = runtime.GOOS + "/" + runtime.GOARCH
	stats.GoVersion = runtime.Version()
	stats.Hostname = hostname
	stats.Goroutines = runtime.NumGoroutine()
	stats.GeneratedAt = now.UTC()

	s.cache.Set(ctx, stats)
	return stats, nil
}

func (s *adminService) ListUsers(ctx context.Context) ([]auth.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return users, nil
}

func (s *adminService) UpdateUser(ctx context.Context, actor *reqctx.Principal, id int64, req UpdateUserRequest) error {
	if actor == nil {
		return apperror.NewMissingContext()
	}
	if id == actor.UserID {
		return apperror.NewBadRequest("you cannot edit your own account")
	}
	if req.IsActive == nil && req.Role == nil {
		return apperror.NewBadRequest("nothing to update")
	}
	if msgs := validate.Struct(req); len(msgs) > 0 {
		return apperror.NewValidation(msgs[0], msgs...)
	}

	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domainOrInternal(err)
	}

	var changes []string
	revoke := false

	if req.Role != nil && *req.Role != target.Role {
		if err := s.users.UpdateRole(ctx, id, *req.Role); err != nil {
			return domainOrInternal(err)
		}
		changes = append(changes, "role="+*req.Role)
		revoke = true
	}
	if req.IsActive != nil && *req.IsActive != target.IsActive {
		if err := s.users.UpdateActive(ctx, id, *req.IsActive); err != nil {
			return domainOrInternal(err)
		}
		changes = append(changes, fmt.Sprintf("is_active=%t", *req.IsActive))
		revoke = revoke || !*req.IsActive
	}

	if len(changes) == 0 {
		return nil
	}

	if revoke {
		n, err := s.sessions.RevokeAllForUser(ctx, id)
		if err != nil {
			return apperror.NewInternal(err)
		}
		slog.Info("revoked sessions after account change",
			slog.Int64("target_user", id),
			slog.Int64("sessions", n),
		)
	}

	s.logs.Record(ctx, audit.Entry{
		Type:    audit.CategorySecurity,
		Message: fmt.Sprintf("admin %s updated user %s: %s", actor.Email, target.Email, strings.Join(changes, ", ")),
	})
	return nil
}

func (s *adminService) ListSessions(ctx context.Context) ([]auth.Session, error) {
	sessions, err := s.sessions.ListRecent(ctx, sessionListLimit)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return sessions, nil
}

func (s *adminService) RevokeSession(ctx context.Context, actor *reqctx.Principal, tokenID string) error {
	if actor == nil {
		return apperror.NewMissingContext()
	}
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return apperror.NewBadRequest("session id is required")
	}
	if err := s.sessions.Revoke(ctx, tokenID); err != nil {
		return apperror.NewInternal(err)
	}

	s.logs.Record(ctx, audit.Entry{
		Type:    audit.CategorySecurity,
		Message: fmt.Sprintf("admin %s revoked session %s", actor.Email, tokenID),
	})
	return nil
}

// domainOrInternal passes AppErrors through and wraps anything else as 500.
func domainOrInternal(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewInternal(err)
}
