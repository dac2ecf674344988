package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"stokri/internal/allocation"
	approvalpkg "stokri/internal/approval"
	assetstore "stokri/internal/asset/store"
	requeststore "stokri/internal/request/store"
	transferstore "stokri/internal/transfer/store"
	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

const defaultAllocationTxTimeout = 5 * time.Second

// allocationPostgresTx runs workflow transitions inside a SQL transaction.
// The asset-scoped store takes SELECT ... FOR UPDATE on Get, so two racing
// transitions on the same asset serialize on the row lock.
type allocationPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newAllocationPostgresTx(db *sql.DB) *allocationPostgresTx {
	return &allocationPostgresTx{db: db}
}

func (t *allocationPostgresTx) RunInTx(ctx context.Context, _ domain.AssetID, fn func(stores allocation.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultAllocationTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stores := allocation.NewStores(
		assetstore.NewPostgresTx(tx),
		requeststore.NewPostgresTx(tx),
		transferstore.NewPostgresTx(tx),
		approvalpkg.NewPostgresStoreTx(tx),
	)
	if err := fn(stores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return translateCommitErr(err)
	}
	return nil
}

// translateCommitErr surfaces serialization and deadlock failures as
// conflicts the client can retry.
func translateCommitErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return dErrors.Wrap(err, dErrors.CodeConflict, "transaction conflicted, retry")
		}
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
}
