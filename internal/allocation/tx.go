package allocation

import (
	"context"

	"stokri/internal/approval"
	assetmodel "stokri/internal/asset/models"
	requestmodel "stokri/internal/request/models"
	transfermodel "stokri/internal/transfer/models"
	"stokri/pkg/domain"
)

// AssetStore is the asset access available inside an allocation transaction.
// Get takes the row lock in SQL-backed implementations; every mutation of
// quantity or status flows through Update inside the same transaction.
type AssetStore interface {
	Get(ctx context.Context, assetID domain.AssetID) (*assetmodel.Asset, error)
	Save(ctx context.Context, asset *assetmodel.Asset) error
	Update(ctx context.Context, asset *assetmodel.Asset) error
}

// RequestStore is the request access available inside an allocation transaction.
type RequestStore interface {
	Get(ctx context.Context, requestID domain.RequestID) (*requestmodel.Request, error)
	Save(ctx context.Context, request *requestmodel.Request) error
	Update(ctx context.Context, request *requestmodel.Request) error
	Delete(ctx context.Context, requestID domain.RequestID) error
}

// TransferStore is the transfer access available inside an allocation transaction.
type TransferStore interface {
	Get(ctx context.Context, transferID domain.TransferID) (*transfermodel.Transfer, error)
	Save(ctx context.Context, transfer *transfermodel.Transfer) error
	Update(ctx context.Context, transfer *transfermodel.Transfer) error
	Delete(ctx context.Context, transferID domain.TransferID) error
}

// ApprovalStore appends decision records. Append-only; no update surface.
type ApprovalStore interface {
	Append(ctx context.Context, record *approval.Approval) error
}

// Stores bundles the per-entity stores scoped to one transaction.
type Stores interface {
	Assets() AssetStore
	Requests() RequestStore
	Transfers() TransferStore
	Approvals() ApprovalStore
}

// storeBundle is the trivial Stores implementation used by the memory tx and
// by SQL transactions that build their per-tx stores up front.
type storeBundle struct {
	assets    AssetStore
	requests  RequestStore
	transfers TransferStore
	approvals ApprovalStore
}

// NewStores bundles per-entity stores into a Stores.
func NewStores(assets AssetStore, requests RequestStore, transfers TransferStore, approvals ApprovalStore) Stores {
	return &storeBundle{assets: assets, requests: requests, transfers: transfers, approvals: approvals}
}

func (b *storeBundle) Assets() AssetStore       { return b.assets }
func (b *storeBundle) Requests() RequestStore   { return b.requests }
func (b *storeBundle) Transfers() TransferStore { return b.transfers }
func (b *storeBundle) Approvals() ApprovalStore { return b.approvals }

// StoreTx is the coordinator's transactional boundary. Every workflow
// transition that touches the ledger runs its read-check-write inside one
// RunInTx call; the asset ID names the contention unit so implementations can
// scope their locking. Implementations may wrap a database transaction or, in
// memory, a sharded lock.
//
// Side effects (notifications, audit events) are collected inside fn and
// dispatched by the caller only after RunInTx returns nil.
type StoreTx interface {
	RunInTx(ctx context.Context, assetID domain.AssetID, fn func(stores Stores) error) error
}
