package models

// Status is the asset's current disposition. AVAILABLE and ALLOCATED are
// derived from the quantity ledger; MAINTENANCE, RETIRED and TRANSFER_PENDING
// override the derived value until lifted.
type Status string

const (
	StatusAvailable       Status = "AVAILABLE"
	StatusAllocated       Status = "ALLOCATED"
	StatusMaintenance     Status = "MAINTENANCE"
	StatusRetired         Status = "RETIRED"
	StatusTransferPending Status = "TRANSFER_PENDING"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusAllocated, StatusMaintenance, StatusRetired, StatusTransferPending:
		return true
	}
	return false
}

// Overridden reports whether the status is an override that suppresses the
// ledger-derived value.
func (s Status) Overridden() bool {
	switch s {
	case StatusMaintenance, StatusRetired, StatusTransferPending:
		return true
	}
	return false
}

// Kind distinguishes a single indivisible unit from quantified stock.
// Splitting this into two variants removes the "nil total means one" reading
// scattered through quantity checks.
type Kind string

const (
	// KindUnit is a single indivisible item; capacity is always 1.
	KindUnit Kind = "unit"
	// KindQuantified is a counted stock with an explicit total.
	KindQuantified Kind = "quantified"
)

func (k Kind) Valid() bool {
	return k == KindUnit || k == KindQuantified
}

// Category drives the return policy. Consumables and expirables leave the
// inventory when issued and cannot come back.
type Category string

const (
	CategoryEquipment  Category = "equipment"
	CategoryFurniture  Category = "furniture"
	CategoryConsumable Category = "consumable"
	CategoryExpirable  Category = "expirable"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryEquipment, CategoryFurniture, CategoryConsumable, CategoryExpirable:
		return true
	}
	return false
}

// Returnable reports whether issued quantity of this category is expected back.
func (c Category) Returnable() bool {
	return c == CategoryEquipment || c == CategoryFurniture
}
