package notifications

import (
	"context"
	"time"

	"campusleave/internal/platform/querier"
)

type Notification struct {
	ID        string     `json:"id"`
	PersonID  string     `json:"personId"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, personID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (person_id, ntype, title, body)
    VALUES ($1,$2,$3,$4)
  `, personID, ntype, title, body)
	return err
}

func (s *Store) List(ctx context.Context, personID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, person_id, ntype, title, body, read_at, created_at
    FROM notifications
    WHERE person_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, personID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.PersonID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, personID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM notifications WHERE person_id = $1 AND read_at IS NULL", personID).Scan(&total)
	return total, err
}

func (s *Store) MarkRead(ctx context.Context, personID, notificationID string) error {
	_, err := s.DB.Exec(ctx,
		"UPDATE notifications SET read_at = now() WHERE id = $1 AND person_id = $2 AND read_at IS NULL",
		notificationID, personID)
	return err
}

func (s *Store) PersonEmail(ctx context.Context, personID string) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, "SELECT email FROM people WHERE id = $1", personID).Scan(&email)
	if err != nil {
		return "", err
	}
	return email, nil
}
