package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"stokri/internal/asset/models"
	"stokri/pkg/domain"
	"stokri/pkg/platform/sentinel"
)

// querier is satisfied by *sql.DB and *sql.Tx so the same queries serve both
// plain reads and transaction-scoped access.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists assets. When constructed over a transaction it takes the
// row lock on Get, giving the allocation coordinator its read-check-write
// isolation.
type Postgres struct {
	q       querier
	locking bool
}

// NewPostgres builds a store over the shared handle, for reads outside any
// allocation transaction.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

// NewPostgresTx builds a transaction-scoped store whose Get issues
// SELECT ... FOR UPDATE.
func NewPostgresTx(tx *sql.Tx) *Postgres {
	return &Postgres{q: tx, locking: true}
}

const assetColumns = `id, name, category, kind, total_quantity, allocated_quantity, status, current_holder, created_at, updated_at`

func (s *Postgres) Get(ctx context.Context, assetID domain.AssetID) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	if s.locking {
		query += ` FOR UPDATE`
	}
	row := s.q.QueryRowContext(ctx, query, assetID.String())
	asset, err := scanAsset(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return asset, nil
}

func (s *Postgres) Save(ctx context.Context, asset *models.Asset) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO assets (`+assetColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		asset.ID.String(), asset.Name, string(asset.Category), string(asset.Kind),
		asset.TotalQuantity, asset.AllocatedQuantity, string(asset.Status),
		holderArg(asset.CurrentHolder), asset.CreatedAt, asset.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save asset: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, asset *models.Asset) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE assets
		 SET name = $2, category = $3, kind = $4, total_quantity = $5,
		     allocated_quantity = $6, status = $7, current_holder = $8, updated_at = $9
		 WHERE id = $1`,
		asset.ID.String(), asset.Name, string(asset.Category), string(asset.Kind),
		asset.TotalQuantity, asset.AllocatedQuantity, string(asset.Status),
		holderArg(asset.CurrentHolder), asset.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Asset, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []*models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("list assets: %w", err)
		}
		out = append(out, asset)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAsset(row scannable) (*models.Asset, error) {
	var (
		asset    models.Asset
		id       string
		category string
		kind     string
		status   string
		holder   sql.NullString
	)
	err := row.Scan(&id, &asset.Name, &category, &kind,
		&asset.TotalQuantity, &asset.AllocatedQuantity, &status, &holder,
		&asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse asset id: %w", err)
	}
	asset.ID = domain.AssetID(parsed)
	asset.Category = models.Category(category)
	asset.Kind = models.Kind(kind)
	asset.Status = models.Status(status)
	if holder.Valid {
		holderID, err := uuid.Parse(holder.String)
		if err != nil {
			return nil, fmt.Errorf("parse holder id: %w", err)
		}
		userID := domain.UserID(holderID)
		asset.CurrentHolder = &userID
	}
	return &asset, nil
}

func holderArg(holder *domain.UserID) any {
	if holder == nil {
		return nil
	}
	return holder.String()
}
