package notify

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"stokri/pkg/domain"
	"stokri/pkg/platform/sentinel"
)

// PostgresStore persists notifications outside any allocation transaction;
// the worker writes here after the core commit.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, n *Notification) error {
	var assetID, requestID, transferID any
	if n.AssetID != nil {
		assetID = n.AssetID.String()
	}
	if n.RequestID != nil {
		requestID = n.RequestID.String()
	}
	if n.TransferID != nil {
		transferID = n.TransferID.String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient, kind, title, body, read, asset_id, request_id, transfer_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID.String(), n.Recipient.String(), string(n.Kind), n.Title, n.Body, n.Read,
		assetID, requestID, transferID, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, recipient domain.UserID) ([]*Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recipient, kind, title, body, read, asset_id, request_id, transfer_id, created_at
		 FROM notifications WHERE recipient = $1 ORDER BY created_at DESC`,
		recipient.String())
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var (
			n                              Notification
			id, recip, kind                string
			assetID, requestID, transferID sql.NullString
		)
		if err := rows.Scan(&id, &recip, &kind, &n.Title, &n.Body, &n.Read,
			&assetID, &requestID, &transferID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("list notifications: %w", err)
		}
		nid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse notification id: %w", err)
		}
		n.ID = domain.NotificationID(nid)
		rid, err := uuid.Parse(recip)
		if err != nil {
			return nil, fmt.Errorf("parse recipient id: %w", err)
		}
		n.Recipient = domain.UserID(rid)
		n.Kind = Kind(kind)
		if assetID.Valid {
			parsed, err := uuid.Parse(assetID.String)
			if err != nil {
				return nil, fmt.Errorf("parse asset id: %w", err)
			}
			aid := domain.AssetID(parsed)
			n.AssetID = &aid
		}
		if requestID.Valid {
			parsed, err := uuid.Parse(requestID.String)
			if err != nil {
				return nil, fmt.Errorf("parse request id: %w", err)
			}
			reqID := domain.RequestID(parsed)
			n.RequestID = &reqID
		}
		if transferID.Valid {
			parsed, err := uuid.Parse(transferID.String)
			if err != nil {
				return nil, fmt.Errorf("parse transfer id: %w", err)
			}
			trID := domain.TransferID(parsed)
			n.TransferID = &trID
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, id domain.NotificationID, recipient domain.UserID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient = $2`,
		id.String(), recipient.String())
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
