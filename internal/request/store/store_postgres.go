package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"stokri/internal/request/models"
	"stokri/pkg/domain"
	"stokri/pkg/platform/sentinel"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists requests. Row locking happens on the asset, not here;
// request rows are only reached through their asset's allocation transaction.
type Postgres struct {
	q querier
}

func NewPostgres(db *sql.DB) *Postgres   { return &Postgres{q: db} }
func NewPostgresTx(tx *sql.Tx) *Postgres { return &Postgres{q: tx} }

const requestColumns = `id, asset_id, requester, requested_quantity, purpose, status,
	issue_condition, issue_notes, returned_with, return_notes, verified_with, verify_notes,
	verifier, created_at, updated_at, fulfilled_at, rejected_at, returned_at, verified_at`

func (s *Postgres) Get(ctx context.Context, requestID domain.RequestID) (*models.Request, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, requestID.String())
	request, err := scanRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return request, nil
}

func (s *Postgres) Save(ctx context.Context, r *models.Request) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO requests (`+requestColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		r.ID.String(), r.AssetID.String(), r.Requester.String(),
		r.RequestedQuantity, r.Purpose, string(r.Status),
		r.IssueCondition, r.IssueNotes,
		conditionArg(r.ReturnedWith), r.ReturnNotes,
		conditionArg(r.VerifiedWith), r.VerifyNotes,
		userArg(r.Verifier), r.CreatedAt, r.UpdatedAt,
		r.FulfilledAt, r.RejectedAt, r.ReturnedAt, r.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("save request: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, r *models.Request) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE requests
		 SET requested_quantity = $2, purpose = $3, status = $4,
		     issue_condition = $5, issue_notes = $6,
		     returned_with = $7, return_notes = $8,
		     verified_with = $9, verify_notes = $10,
		     verifier = $11, updated_at = $12,
		     fulfilled_at = $13, rejected_at = $14, returned_at = $15, verified_at = $16
		 WHERE id = $1`,
		r.ID.String(), r.RequestedQuantity, r.Purpose, string(r.Status),
		r.IssueCondition, r.IssueNotes,
		conditionArg(r.ReturnedWith), r.ReturnNotes,
		conditionArg(r.VerifiedWith), r.VerifyNotes,
		userArg(r.Verifier), r.UpdatedAt,
		r.FulfilledAt, r.RejectedAt, r.ReturnedAt, r.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, requestID domain.RequestID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, requestID.String())
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Request, error) {
	return s.list(ctx, `SELECT `+requestColumns+` FROM requests ORDER BY created_at`)
}

func (s *Postgres) ListByRequester(ctx context.Context, requester domain.UserID) ([]*models.Request, error) {
	return s.list(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE requester = $1 ORDER BY created_at`,
		requester.String())
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list requests: %w", err)
		}
		out = append(out, request)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRequest(row scannable) (*models.Request, error) {
	var (
		r                          models.Request
		id, assetID, requester     string
		status                     string
		returnedWith, verifiedWith sql.NullString
		verifier                   sql.NullString
	)
	err := row.Scan(&id, &assetID, &requester, &r.RequestedQuantity, &r.Purpose, &status,
		&r.IssueCondition, &r.IssueNotes, &returnedWith, &r.ReturnNotes,
		&verifiedWith, &r.VerifyNotes, &verifier,
		&r.CreatedAt, &r.UpdatedAt, &r.FulfilledAt, &r.RejectedAt, &r.ReturnedAt, &r.VerifiedAt)
	if err != nil {
		return nil, err
	}
	if r.ID, err = parseRequestID(id); err != nil {
		return nil, err
	}
	aid, err := uuid.Parse(assetID)
	if err != nil {
		return nil, fmt.Errorf("parse asset id: %w", err)
	}
	r.AssetID = domain.AssetID(aid)
	rid, err := uuid.Parse(requester)
	if err != nil {
		return nil, fmt.Errorf("parse requester id: %w", err)
	}
	r.Requester = domain.UserID(rid)
	r.Status = models.Status(status)
	if returnedWith.Valid {
		c := models.Condition(returnedWith.String)
		r.ReturnedWith = &c
	}
	if verifiedWith.Valid {
		c := models.Condition(verifiedWith.String)
		r.VerifiedWith = &c
	}
	if verifier.Valid {
		vid, err := uuid.Parse(verifier.String)
		if err != nil {
			return nil, fmt.Errorf("parse verifier id: %w", err)
		}
		userID := domain.UserID(vid)
		r.Verifier = &userID
	}
	return &r, nil
}

func parseRequestID(raw string) (domain.RequestID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return domain.RequestID{}, fmt.Errorf("parse request id: %w", err)
	}
	return domain.RequestID(parsed), nil
}

func conditionArg(c *models.Condition) any {
	if c == nil {
		return nil
	}
	return string(*c)
}

func userArg(u *domain.UserID) any {
	if u == nil {
		return nil
	}
	return u.String()
}
