package approval

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"stokri/pkg/domain"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresStore persists approval records. Insert-only; the schema enforces
// the one-subject constraint.
type PostgresStore struct {
	q querier
}

func NewPostgresStore(db *sql.DB) *PostgresStore   { return &PostgresStore{q: db} }
func NewPostgresStoreTx(tx *sql.Tx) *PostgresStore { return &PostgresStore{q: tx} }

func (s *PostgresStore) Append(ctx context.Context, record *Approval) error {
	var requestID, transferID any
	if record.RequestID != nil {
		requestID = record.RequestID.String()
	}
	if record.TransferID != nil {
		transferID = record.TransferID.String()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO approvals (id, request_id, transfer_id, decision, approver, comments, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID.String(), requestID, transferID, string(record.Decision),
		record.Approver.String(), record.Comments, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append approval: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*Approval, error) {
	return s.list(ctx,
		`SELECT id, request_id, transfer_id, decision, approver, comments, created_at
		 FROM approvals WHERE request_id = $1 ORDER BY created_at`, requestID.String())
}

func (s *PostgresStore) ListByTransfer(ctx context.Context, transferID domain.TransferID) ([]*Approval, error) {
	return s.list(ctx,
		`SELECT id, request_id, transfer_id, decision, approver, comments, created_at
		 FROM approvals WHERE transfer_id = $1 ORDER BY created_at`, transferID.String())
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*Approval, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var out []*Approval
	for rows.Next() {
		var (
			record                 Approval
			id, approver, decision string
			requestID, transferID  sql.NullString
		)
		if err := rows.Scan(&id, &requestID, &transferID, &decision, &approver, &record.Comments, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("list approvals: %w", err)
		}
		aid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse approval id: %w", err)
		}
		record.ID = domain.ApprovalID(aid)
		app, err := uuid.Parse(approver)
		if err != nil {
			return nil, fmt.Errorf("parse approver id: %w", err)
		}
		record.Approver = domain.UserID(app)
		record.Decision = Decision(decision)
		if requestID.Valid {
			rid, err := uuid.Parse(requestID.String)
			if err != nil {
				return nil, fmt.Errorf("parse request id: %w", err)
			}
			reqID := domain.RequestID(rid)
			record.RequestID = &reqID
		}
		if transferID.Valid {
			tid, err := uuid.Parse(transferID.String)
			if err != nil {
				return nil, fmt.Errorf("parse transfer id: %w", err)
			}
			trID := domain.TransferID(tid)
			record.TransferID = &trID
		}
		out = append(out, &record)
	}
	return out, rows.Err()
}
