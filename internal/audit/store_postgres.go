package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"stokri/pkg/domain"
)

// PostgresStore persists the activity trail.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var actor any
	if !event.Actor.IsZero() {
		actor = event.Actor.String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (action, actor, subject, decision, reason, request_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(event.Action), actor, event.Subject, event.Decision, event.Reason,
		event.RequestID, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT action, actor, subject, decision, reason, request_id, created_at
		 FROM audit_events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event  Event
			action string
			actor  sql.NullString
		)
		if err := rows.Scan(&action, &actor, &event.Subject, &event.Decision,
			&event.Reason, &event.RequestID, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("list audit events: %w", err)
		}
		event.Action = Action(action)
		if actor.Valid {
			parsed, err := uuid.Parse(actor.String)
			if err != nil {
				return nil, fmt.Errorf("parse actor id: %w", err)
			}
			event.Actor = domain.UserID(parsed)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
