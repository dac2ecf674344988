package models

import (
	"time"

	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

// Asset is the aggregate root for a trackable item or consumable stock.
//
// Invariants:
//   - 0 <= AllocatedQuantity <= Capacity() at all times
//   - Status is ALLOCATED iff Available() == 0, AVAILABLE otherwise, unless an
//     override (MAINTENANCE, RETIRED, TRANSFER_PENDING) is in force
//   - KindUnit assets always have TotalQuantity == 1
//   - Quantity and status fields are mutated only inside an allocation
//     transaction; handlers and read surfaces never write them directly
type Asset struct {
	ID                domain.AssetID `json:"id"`
	Name              string         `json:"name"`
	Category          Category       `json:"category"`
	Kind              Kind           `json:"kind"`
	TotalQuantity     int            `json:"total_quantity"`
	AllocatedQuantity int            `json:"allocated_quantity"`
	Status            Status         `json:"status"`
	CurrentHolder     *domain.UserID `json:"current_holder,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewAsset validates and constructs an asset. Unit assets ignore the supplied
// total and carry a fixed capacity of 1.
func NewAsset(assetID domain.AssetID, name string, category Category, kind Kind, total int, now time.Time) (*Asset, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "asset name cannot be empty")
	}
	if !category.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown asset category")
	}
	if !kind.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown asset kind")
	}
	switch kind {
	case KindUnit:
		total = 1
	case KindQuantified:
		if total < 1 {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "quantified asset needs a total of at least 1")
		}
	}
	return &Asset{
		ID:            assetID,
		Name:          name,
		Category:      category,
		Kind:          kind,
		TotalQuantity: total,
		Status:        StatusAvailable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Capacity returns the total quantity the ledger may allocate against.
func (a *Asset) Capacity() int {
	if a.Kind == KindUnit {
		return 1
	}
	return a.TotalQuantity
}

// Available returns the uncommitted quantity.
func (a *Asset) Available() int {
	return a.Capacity() - a.AllocatedQuantity
}

// DerivedStatus computes the ledger-driven status, ignoring overrides.
func (a *Asset) DerivedStatus() Status {
	if a.Available() <= 0 {
		return StatusAllocated
	}
	return StatusAvailable
}

// CanAllocate checks that the asset accepts reservations in its current state.
func (a *Asset) CanAllocate() error {
	switch a.Status {
	case StatusMaintenance:
		return dErrors.New(dErrors.CodeInvalidState, "asset is under maintenance")
	case StatusRetired:
		return dErrors.New(dErrors.CodeInvalidState, "asset is retired")
	case StatusTransferPending:
		return dErrors.New(dErrors.CodeInvalidState, "asset has a transfer pending")
	}
	return nil
}

// CanStartTransfer checks the precondition for creating a transfer: the asset
// must carry an active allocation and no competing transfer.
func (a *Asset) CanStartTransfer() error {
	if a.Status == StatusTransferPending {
		return dErrors.New(dErrors.CodeInvalidState, "asset already has a transfer pending")
	}
	if a.Status != StatusAllocated {
		return dErrors.Newf(dErrors.CodeAssetNotAllocated, "asset is %s, transfers require an allocated asset", a.Status)
	}
	return nil
}

// ApplyTransferPending provisionally parks the asset while a transfer awaits
// its decision. No quantity moves yet.
func (a *Asset) ApplyTransferPending(now time.Time) {
	a.Status = StatusTransferPending
	a.UpdatedAt = now
}

// ApplyTransferResolution lifts the TRANSFER_PENDING override, restoring the
// ledger-derived status. Used for both rejection and completion.
func (a *Asset) ApplyTransferResolution(now time.Time) {
	a.Status = a.DerivedStatus()
	a.UpdatedAt = now
}

// CanRetire checks the retirement transition.
func (a *Asset) CanRetire() error {
	if a.Status == StatusRetired {
		return dErrors.New(dErrors.CodeInvalidState, "asset is already retired")
	}
	if a.Status == StatusTransferPending {
		return dErrors.New(dErrors.CodeInvalidState, "asset has a transfer pending")
	}
	return nil
}

// ApplyRetirement marks the asset retired.
func (a *Asset) ApplyRetirement(now time.Time) {
	a.Status = StatusRetired
	a.UpdatedAt = now
}

// CanSetMaintenance checks the maintenance transition.
func (a *Asset) CanSetMaintenance() error {
	if a.Status == StatusRetired {
		return dErrors.New(dErrors.CodeInvalidState, "asset is retired")
	}
	if a.Status == StatusTransferPending {
		return dErrors.New(dErrors.CodeInvalidState, "asset has a transfer pending")
	}
	return nil
}

// ApplyMaintenance marks the asset under maintenance.
func (a *Asset) ApplyMaintenance(now time.Time) {
	a.Status = StatusMaintenance
	a.UpdatedAt = now
}

// CanReinstate checks lifting a maintenance or retirement override.
func (a *Asset) CanReinstate() error {
	if !a.Status.Overridden() {
		return dErrors.Newf(dErrors.CodeInvalidState, "asset is %s, nothing to reinstate", a.Status)
	}
	if a.Status == StatusTransferPending {
		return dErrors.New(dErrors.CodeInvalidState, "asset has a transfer pending")
	}
	return nil
}

// ApplyReinstatement restores the ledger-derived status.
func (a *Asset) ApplyReinstatement(now time.Time) {
	a.Status = a.DerivedStatus()
	a.UpdatedAt = now
}

// SetHolder records the holder of record. A nil holder means the quantity sits
// in shared stock.
func (a *Asset) SetHolder(holder *domain.UserID, now time.Time) {
	a.CurrentHolder = holder
	a.UpdatedAt = now
}

// HeldBy reports whether the given user is the current holder of record.
func (a *Asset) HeldBy(userID domain.UserID) bool {
	return a.CurrentHolder != nil && *a.CurrentHolder == userID
}
