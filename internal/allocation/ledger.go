// Package allocation holds the quantity ledger and the transactional contract
// every workflow transition runs inside. It is the only path through which
// asset quantity and status fields change.
package allocation

import (
	"time"

	assetmodel "stokri/internal/asset/models"
	dErrors "stokri/pkg/domain-errors"
)

// LedgerResult is the next ledger state computed from an asset snapshot.
// It is pure output; nothing is mutated until Apply runs inside the same
// transaction that loaded the snapshot.
type LedgerResult struct {
	Allocated int
	Status    assetmodel.Status
	// LowStock is set when the post-operation availability sits at or below
	// the configured threshold. The caller emits the stock alert; the ledger
	// only reports the crossing.
	LowStock bool
	// Exhausted is set when availability reached zero.
	Exhausted bool
}

// Reserve computes the ledger state after committing quantity against the
// asset. Fails with an insufficient-quantity error carrying the available vs.
// requested numbers; contention makes this a frequent, user-facing outcome.
func Reserve(a *assetmodel.Asset, quantity, lowStockThreshold int) (LedgerResult, error) {
	if quantity < 1 {
		return LedgerResult{}, dErrors.New(dErrors.CodeValidation, "quantity must be at least 1")
	}
	available := a.Available()
	if available < quantity {
		return LedgerResult{}, dErrors.Newf(dErrors.CodeInsufficientQuantity,
			"insufficient quantity: available %d, requested %d", available, quantity)
	}
	next := a.AllocatedQuantity + quantity
	remaining := a.Capacity() - next
	return LedgerResult{
		Allocated: next,
		Status:    statusFor(a, remaining),
		LowStock:  remaining <= lowStockThreshold,
		Exhausted: remaining == 0,
	}, nil
}

// Release computes the ledger state after returning quantity to the pool.
// Never fails; the allocation clamps at zero so bookkeeping drift surfaces as
// a log line rather than a stuck workflow.
func Release(a *assetmodel.Asset, quantity, lowStockThreshold int) LedgerResult {
	next := a.AllocatedQuantity - quantity
	if next < 0 {
		next = 0
	}
	remaining := a.Capacity() - next
	return LedgerResult{
		Allocated: next,
		Status:    statusFor(a, remaining),
		LowStock:  remaining <= lowStockThreshold,
		Exhausted: remaining == 0,
	}
}

// Apply writes the computed ledger state onto the asset. Overridden statuses
// (maintenance, retired, transfer-pending) are preserved; only the derived
// AVAILABLE/ALLOCATED pair follows the ledger.
func (r LedgerResult) Apply(a *assetmodel.Asset, now time.Time) {
	a.AllocatedQuantity = r.Allocated
	if !a.Status.Overridden() {
		a.Status = r.Status
	}
	a.UpdatedAt = now
}

func statusFor(a *assetmodel.Asset, remaining int) assetmodel.Status {
	if a.Status.Overridden() {
		return a.Status
	}
	if remaining <= 0 {
		return assetmodel.StatusAllocated
	}
	return assetmodel.StatusAvailable
}
