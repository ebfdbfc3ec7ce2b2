package enums

// UserRole distinguishes storefront buyers from product sellers.
type UserRole string

const (
	RoleBuyer  UserRole = "buyer"
	RoleSeller UserRole = "seller"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller:
		return true
	}
	return false
}
