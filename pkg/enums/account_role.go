package enums

import "fmt"

// AccountRole scopes what an actor may do against an order.
type AccountRole string

const (
	AccountRoleUser  AccountRole = "user"
	AccountRoleStaff AccountRole = "staff"
	AccountRoleAdmin AccountRole = "admin"
)

var validAccountRoles = []AccountRole{
	AccountRoleUser,
	AccountRoleStaff,
	AccountRoleAdmin,
}

// IsValid reports whether the value is a known AccountRole.
func (r AccountRole) IsValid() bool {
	for _, candidate := range validAccountRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Elevated reports whether the role may drive forward order transitions.
func (r AccountRole) Elevated() bool {
	return r == AccountRoleStaff || r == AccountRoleAdmin
}

// CanRedeemPoints reports whether the account class participates in
// point redemption. Only regular user accounts hold redeemable balances.
func (r AccountRole) CanRedeemPoints() bool {
	return r == AccountRoleUser
}

// ParseAccountRole converts raw input into an AccountRole.
func ParseAccountRole(value string) (AccountRole, error) {
	for _, candidate := range validAccountRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account role %q", value)
}
