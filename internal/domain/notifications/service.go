package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store  *Store
	Mailer Mailer
	From   string
}

func New(store *Store, mailer Mailer, from string) *Service {
	return &Service{store: store, Mailer: mailer, From: from}
}

// Notify stores an in-app notification and best-effort emails the person;
// email failures are logged, never surfaced to the caller.
func (s *Service) Notify(ctx context.Context, personID, ntype, title, body string) error {
	if err := s.store.Create(ctx, personID, ntype, title, body); err != nil {
		return err
	}

	if s.Mailer == nil {
		return nil
	}
	email, err := s.store.PersonEmail(ctx, personID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.From, email, title, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, personID string, limit, offset int) ([]Notification, error) {
	return s.store.List(ctx, personID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, personID string) (int, error) {
	return s.store.CountUnread(ctx, personID)
}

func (s *Service) MarkRead(ctx context.Context, personID, notificationID string) error {
	return s.store.MarkRead(ctx, personID, notificationID)
}
