package contact

import (
	"context"
	"errors"
	"time"

	"github.com/arelclub/clubgate/internal/apperror"
	"github.com/arelclub/clubgate/internal/plugins/audit"
	"github.com/arelclub/clubgate/internal/reqctx"
	"github.com/arelclub/clubgate/internal/sanitize"
	"github.com/arelclub/clubgate/internal/validate"
)

// ContactService handles contact form submissions and the admin inbox.
type ContactService interface {
	// Submit sanitizes, validates and stores a message. Every validation
	// problem is reported at once.
	Submit(ctx context.Context, req SubmitRequest) (*Message, error)

	List(ctx context.Context) ([]Message, error)
	MarkRead(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Counts(ctx context.Context) (Counts, error)
}

type contactService struct {
	repo  ContactRepository
	audit audit.Recorder
	now   func() time.Time
}

// NewContactService creates a contact service.
func NewContactService(repo ContactRepository, rec audit.Recorder) ContactService {
	return &contactService{repo: repo, audit: rec, now: time.Now}
}

func (s *contactService) Submit(ctx context.Context, req SubmitRequest) (*Message, error) {
	sub := submission{
		Name:    sanitize.Text(req.Name),
		Email:   sanitize.Email(req.Email),
		Subject: sanitize.Text(req.Subject),
		Message: sanitize.Text(req.Message),
	}
	if msgs := validate.Struct(sub); len(msgs) > 0 {
		return nil, apperror.NewValidation("please correct the highlighted fields", msgs...)
	}

	m := &Message{
		Name:      sub.Name,
		Email:     sub.Email,
		Subject:   sub.Subject,
		Message:   sub.Message,
		IPAddress: reqctx.From(ctx).ClientAddr,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, apperror.NewInternal(err)
	}

	s.audit.Record(ctx, audit.Entry{
		Type:    audit.CategoryAccess,
		Method:  "POST",
		Path:    "/api/contact",
		Status:  201,
		Message: "contact from " + m.Email,
	})
	return m, nil
}

func (s *contactService) List(ctx context.Context) ([]Message, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return out, nil
}

func (s *contactService) MarkRead(ctx context.Context, id int64) error {
	return passNotFound(s.repo.MarkRead(ctx, id))
}

func (s *contactService) Delete(ctx context.Context, id int64) error {
	return passNotFound(s.repo.Delete(ctx, id))
}

func (s *contactService) Counts(ctx context.Context) (Counts, error) {
	c, err := s.repo.Counts(ctx)
	if err != nil {
		return Counts{}, apperror.NewInternal(err)
	}
	return c, nil
}

// passNotFound keeps domain errors and hides everything else behind a 500.
func passNotFound(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewInternal(err)
}
