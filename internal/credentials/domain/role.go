package domain

import "fmt"

// Role is the dashboard role granted by an invitation.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleBankViewer Role = "bank_viewer"
	RoleSpecialist Role = "specialist"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleBankViewer, RoleSpecialist:
		return true
	}
	return false
}

// RequiresScope reports whether the role is bound to a bank.
func (r Role) RequiresScope() bool {
	return r == RoleBankViewer || r == RoleSpecialist
}

// CheckScope enforces the role/scope pairing: admins are global, everyone
// else belongs to exactly one bank.
func (r Role) CheckScope(scopeID string) error {
	switch {
	case !r.Valid():
		return fmt.Errorf("unknown role %q", r)
	case r.RequiresScope() && scopeID == "":
		return fmt.Errorf("role %q requires a bank scope", r)
	case !r.RequiresScope() && scopeID != "":
		return fmt.Errorf("role %q cannot be scoped to a bank", r)
	}
	return nil
}

// Rank orders roles so the most privileged accepted profile wins when a
// user holds several.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleSpecialist:
		return 2
	case RoleBankViewer:
		return 1
	}
	return 0
}
