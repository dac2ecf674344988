package domain

// Role is the acting user's position as supplied by the identity provider.
// The workflow engine treats it as an opaque value compared against fixed
// policy constants; it never derives permissions from anything else.
type Role string

const (
	// RoleMember may create requests and act on their own pending ones.
	RoleMember Role = "member"
	// RoleOfficer approves requests, verifies returns and manages assets.
	// Officers also stand in for the shared stock as a transfer destination.
	RoleOfficer Role = "officer"
	// RoleAdmin is the single role permitted to approve transfers.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the fixed policy constants.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleOfficer, RoleAdmin:
		return true
	}
	return false
}

// CanApproveRequests reports whether the role may decide borrow requests.
func (r Role) CanApproveRequests() bool {
	return r == RoleOfficer || r == RoleAdmin
}

// CanApproveTransfers reports whether the role may decide transfers.
// Deliberately stricter than request approval: an officer who can approve
// requests still cannot approve transfers.
func (r Role) CanApproveTransfers() bool {
	return r == RoleAdmin
}

// ActsAsStock reports whether a transfer destination with this role represents
// the shared inventory rather than an individual holder.
func (r Role) ActsAsStock() bool {
	return r == RoleOfficer || r == RoleAdmin
}
