package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campusleave/internal/platform/querier"
)

type Entry struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	OldValues  json.RawMessage `json:"oldValues,omitempty"`
	NewValues  json.RawMessage `json:"newValues,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorID    string
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

// Record appends one immutable audit row; old/new are marshalled to JSON.
func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, oldValues, newValues any) error {
	var oldJSON, newJSON []byte
	if oldValues != nil {
		payload, err := json.Marshal(oldValues)
		if err != nil {
			return err
		}
		oldJSON = payload
	}
	if newValues != nil {
		payload, err := json.Marshal(newValues)
		if err != nil {
			return err
		}
		newJSON = payload
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, old_values, new_values, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, nullableID(actorID), action, entityType, entityID, nullableText(oldJSON), nullableText(newJSON), requestID, ip)
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, error) {
	query, args := buildBaseQuery(`
    SELECT id, COALESCE(actor_id::text, ''), action, entity_type, entity_id,
           COALESCE(old_values, ''), COALESCE(new_values, ''), request_id, ip, created_at
  `, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		var oldValues, newValues string
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &entry.EntityType, &entry.EntityID,
			&oldValues, &newValues, &entry.RequestID, &entry.IP, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if oldValues != "" {
			entry.OldValues = json.RawMessage(oldValues)
		}
		if newValues != "" {
			entry.NewValues = json.RawMessage(newValues)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_logs WHERE 1=1"
	args := []any{}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}
	if filter.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, filter.EntityType)
	}
	if filter.ActorID != "" {
		query += fmt.Sprintf(" AND actor_id::text = $%d", len(args)+1)
		args = append(args, filter.ActorID)
	}
	return query, args
}

func nullableID(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func nullableText(value []byte) *string {
	if len(value) == 0 {
		return nil
	}
	text := string(value)
	return &text
}
