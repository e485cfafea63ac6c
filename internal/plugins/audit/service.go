package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arelclub/clubgate/internal/apperror"
	"github.com/arelclub/clubgate/internal/reqctx"
)

const (
	// defaultPageSize is used when the admin listing gives no limit.
	defaultPageSize = 50

	// maxPageSize caps a single page of the admin listing.
	maxPageSize = 200

	// writeTimeout bounds one best-effort insert.
	writeTimeout = 2 * time.Second
)

// Recorder is the write side of the audit log. Other plugins depend on this
// narrow interface only.
type Recorder interface {
	// Record stores an entry. It never fails from the caller's point of
	// view: storage errors are logged and the entry is dropped.
	Record(ctx context.Context, entry Entry)
}

// AuditService handles both sides of the audit log.
type AuditService interface {
	Recorder

	// List returns one page of entries for the admin view. typ is a
	// category name in any case; empty lists everything.
	List(ctx context.Context, typ string, page, limit int) (*LogPage, error)

	// Count returns the total number of stored entries.
	Count(ctx context.Context) (int, error)

	// CountRecentErrors counts ERROR entries within the trailing window.
	CountRecentErrors(ctx context.Context, window time.Duration) (int, error)
}

// auditService implements AuditService.
type auditService struct {
	repo AuditRepository
	now  func() time.Time
}

// NewAuditService creates a new audit service with the given repository.
func NewAuditService(repo AuditRepository) AuditService {
	return &auditService{repo: repo, now: time.Now}
}

// Record fills client details from the request record when the caller left
// them blank, mirrors non-access entries to slog, and inserts the row on a
// context detached from request cancellation so a client hanging up doesn't
// lose the entry.
func (s *auditService) Record(ctx context.Context, entry Entry) {
	info := reqctx.From(ctx)
	if entry.IP == "" {
		entry.IP = info.ClientAddr
	}
	if entry.UserAgent == "" {
		entry.UserAgent = info.UserAgent
	}
	if entry.UserID == nil && info.Principal != nil {
		id := info.Principal.UserID
		entry.UserID = &id
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}

	mirror(ctx, entry)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := s.repo.Insert(writeCtx, &entry); err != nil {
		slog.Warn("dropping log entry",
			slog.String("type", string(entry.Type)),
			slog.String("message", entry.Message),
			slog.Any("error", err),
		)
	}
}

// mirror writes security, auth and error events to the process log so they
// survive even when the database is the thing that is failing.
func mirror(ctx context.Context, e Entry) {
	level := slog.LevelInfo
	switch e.Type {
	case CategoryAccess:
		return
	case CategoryError:
		level = slog.LevelError
	case CategorySecurity:
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, e.Message,
		slog.String("category", string(e.Type)),
		slog.String("ip", e.IP),
	)
}

// List validates the filter, clamps paging, and delegates to the repository.
func (s *auditService) List(ctx context.Context, typ string, page, limit int) (*LogPage, error) {
	category, ok := ParseCategory(typ)
	if !ok {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown log type %q", typ))
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	entries, total, err := s.repo.List(ctx, category, limit, (page-1)*limit)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing logs: %w", err))
	}

	return &LogPage{Logs: entries, Total: total, Page: page, Limit: limit}, nil
}

// Count returns the total number of stored entries.
func (s *auditService) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apperror.NewInternal(err)
	}
	return n, nil
}

// CountRecentErrors counts ERROR entries newer than now - window.
func (s *auditService) CountRecentErrors(ctx context.Context, window time.Duration) (int, error) {
	n, err := s.repo.CountSince(ctx, CategoryError, s.now().UTC().Add(-window))
	if err != nil {
		return 0, apperror.NewInternal(err)
	}
	return n, nil
}
