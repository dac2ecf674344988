package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"stokri/internal/transfer/models"
	"stokri/pkg/domain"
	"stokri/pkg/platform/sentinel"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists transfers.
type Postgres struct {
	q querier
}

func NewPostgres(db *sql.DB) *Postgres   { return &Postgres{q: db} }
func NewPostgresTx(tx *sql.Tx) *Postgres { return &Postgres{q: tx} }

const transferColumns = `id, asset_id, from_holder, to_holder, transfer_quantity, reason,
	status, to_stock, receipt_number, initiated_by, created_at, updated_at, completed_at, rejected_at`

func (s *Postgres) Get(ctx context.Context, transferID domain.TransferID) (*models.Transfer, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1`, transferID.String())
	transfer, err := scanTransfer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return transfer, nil
}

func (s *Postgres) Save(ctx context.Context, t *models.Transfer) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO transfers (`+transferColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID.String(), t.AssetID.String(), userArg(t.FromHolder), t.ToHolder.String(),
		t.TransferQuantity, t.Reason, string(t.Status), t.ToStock, t.ReceiptNumber,
		t.InitiatedBy.String(), t.CreatedAt, t.UpdatedAt, t.CompletedAt, t.RejectedAt,
	)
	if err != nil {
		return fmt.Errorf("save transfer: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, t *models.Transfer) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE transfers
		 SET transfer_quantity = $2, reason = $3, status = $4, receipt_number = $5,
		     updated_at = $6, completed_at = $7, rejected_at = $8
		 WHERE id = $1`,
		t.ID.String(), t.TransferQuantity, t.Reason, string(t.Status), t.ReceiptNumber,
		t.UpdatedAt, t.CompletedAt, t.RejectedAt,
	)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, transferID domain.TransferID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM transfers WHERE id = $1`, transferID.String())
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Transfer, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []*models.Transfer
	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("list transfers: %w", err)
		}
		out = append(out, transfer)
	}
	return out, rows.Err()
}

func (s *Postgres) ListByParty(ctx context.Context, userID domain.UserID) ([]*models.Transfer, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers
		 WHERE initiated_by = $1 OR to_holder = $1 OR from_holder = $1
		 ORDER BY created_at`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list transfers by party: %w", err)
	}
	defer rows.Close()

	var out []*models.Transfer
	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("list transfers by party: %w", err)
		}
		out = append(out, transfer)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTransfer(row scannable) (*models.Transfer, error) {
	var (
		t                         models.Transfer
		id, assetID, toHolder     string
		fromHolder                sql.NullString
		status, initiatedBy       string
	)
	err := row.Scan(&id, &assetID, &fromHolder, &toHolder, &t.TransferQuantity, &t.Reason,
		&status, &t.ToStock, &t.ReceiptNumber, &initiatedBy,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.RejectedAt)
	if err != nil {
		return nil, err
	}
	tid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse transfer id: %w", err)
	}
	t.ID = domain.TransferID(tid)
	aid, err := uuid.Parse(assetID)
	if err != nil {
		return nil, fmt.Errorf("parse asset id: %w", err)
	}
	t.AssetID = domain.AssetID(aid)
	to, err := uuid.Parse(toHolder)
	if err != nil {
		return nil, fmt.Errorf("parse destination holder id: %w", err)
	}
	t.ToHolder = domain.UserID(to)
	if fromHolder.Valid {
		from, err := uuid.Parse(fromHolder.String)
		if err != nil {
			return nil, fmt.Errorf("parse source holder id: %w", err)
		}
		userID := domain.UserID(from)
		t.FromHolder = &userID
	}
	ib, err := uuid.Parse(initiatedBy)
	if err != nil {
		return nil, fmt.Errorf("parse initiator id: %w", err)
	}
	t.InitiatedBy = domain.UserID(ib)
	t.Status = models.Status(status)
	return &t, nil
}

func userArg(u *domain.UserID) any {
	if u == nil {
		return nil
	}
	return u.String()
}
