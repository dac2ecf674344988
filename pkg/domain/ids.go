// Package domain holds the typed identifiers and role values shared across
// feature packages. Typed IDs prevent cross-entity assignment at compile time;
// parsing enforces the "valid, non-nil UUID" invariant at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "stokri/pkg/domain-errors"
)

type (
	// UserID identifies a faculty member, officer or admin.
	UserID uuid.UUID
	// AssetID identifies a trackable asset or consumable stock.
	AssetID uuid.UUID
	// RequestID identifies a borrow request.
	RequestID uuid.UUID
	// TransferID identifies a holder-to-holder movement.
	TransferID uuid.UUID
	// ApprovalID identifies an append-only approval record.
	ApprovalID uuid.UUID
	// NotificationID identifies a dispatched notification.
	NotificationID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id AssetID) String() string        { return uuid.UUID(id).String() }
func (id RequestID) String() string      { return uuid.UUID(id).String() }
func (id TransferID) String() string     { return uuid.UUID(id).String() }
func (id ApprovalID) String() string     { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }
func (id AssetID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TransferID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ApprovalID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// The typed IDs serialize as their canonical UUID string. Defining the text
// methods here keeps JSON bodies readable without per-struct marshal code.

func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id AssetID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id TransferID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ApprovalID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = UserID(parsed)
	return nil
}

func (id *AssetID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = AssetID(parsed)
	return nil
}

func (id *RequestID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = RequestID(parsed)
	return nil
}

func (id *TransferID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = TransferID(parsed)
	return nil
}

func (id *ApprovalID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = ApprovalID(parsed)
	return nil
}

func (id *NotificationID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = NotificationID(parsed)
	return nil
}

// parseUUID enforces the shared parsing invariant for all typed IDs.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	return UserID(parsed), err
}

func ParseAssetID(raw string) (AssetID, error) {
	parsed, err := parseUUID(raw)
	return AssetID(parsed), err
}

func ParseRequestID(raw string) (RequestID, error) {
	parsed, err := parseUUID(raw)
	return RequestID(parsed), err
}

func ParseTransferID(raw string) (TransferID, error) {
	parsed, err := parseUUID(raw)
	return TransferID(parsed), err
}
