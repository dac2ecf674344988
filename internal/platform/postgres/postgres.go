// Package postgres owns the database handle lifecycle and schema bootstrap.
// The handle is constructed here and injected where needed; nothing reaches
// for a package-level singleton.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects, configures the pool and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables on first boot. Statements are idempotent so
// repeated startups are safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		kind TEXT NOT NULL,
		total_quantity INT NOT NULL CHECK (total_quantity >= 1),
		allocated_quantity INT NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		current_holder UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT assets_allocation_bounds
			CHECK (allocated_quantity >= 0 AND allocated_quantity <= total_quantity)
	)`,
	`CREATE TABLE IF NOT EXISTS requests (
		id UUID PRIMARY KEY,
		asset_id UUID NOT NULL REFERENCES assets(id),
		requester UUID NOT NULL,
		requested_quantity INT NOT NULL CHECK (requested_quantity >= 1),
		purpose TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		issue_condition TEXT NOT NULL DEFAULT '',
		issue_notes TEXT NOT NULL DEFAULT '',
		returned_with TEXT,
		return_notes TEXT NOT NULL DEFAULT '',
		verified_with TEXT,
		verify_notes TEXT NOT NULL DEFAULT '',
		verifier UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		fulfilled_at TIMESTAMPTZ,
		rejected_at TIMESTAMPTZ,
		returned_at TIMESTAMPTZ,
		verified_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS requests_requester_idx ON requests (requester)`,
	`CREATE INDEX IF NOT EXISTS requests_asset_idx ON requests (asset_id)`,
	`CREATE TABLE IF NOT EXISTS transfers (
		id UUID PRIMARY KEY,
		asset_id UUID NOT NULL REFERENCES assets(id),
		from_holder UUID,
		to_holder UUID NOT NULL,
		transfer_quantity INT NOT NULL CHECK (transfer_quantity >= 1),
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		to_stock BOOLEAN NOT NULL DEFAULT FALSE,
		receipt_number TEXT NOT NULL DEFAULT '',
		initiated_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		rejected_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS transfers_asset_idx ON transfers (asset_id)`,
	`CREATE TABLE IF NOT EXISTS approvals (
		id UUID PRIMARY KEY,
		request_id UUID REFERENCES requests(id),
		transfer_id UUID REFERENCES transfers(id),
		decision TEXT NOT NULL,
		approver UUID NOT NULL,
		comments TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT approvals_single_subject
			CHECK ((request_id IS NULL) <> (transfer_id IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS approvals_request_idx ON approvals (request_id)`,
	`CREATE INDEX IF NOT EXISTS approvals_transfer_idx ON approvals (transfer_id)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		recipient UUID NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		read BOOLEAN NOT NULL DEFAULT FALSE,
		asset_id UUID,
		request_id UUID,
		transfer_id UUID,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_recipient_idx ON notifications (recipient, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id BIGSERIAL PRIMARY KEY,
		action TEXT NOT NULL,
		actor UUID,
		subject TEXT NOT NULL DEFAULT '',
		decision TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		request_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
}
