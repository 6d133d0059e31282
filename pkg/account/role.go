package account

import (
	"encoding/json"
	"fmt"
)

// Role is the account's entitlement tier.
type Role string

const (
	RoleFree  Role = "Free"
	RoleVIP   Role = "VIP"
	RoleAdmin Role = "Admin"
)

// rank orders roles by capability. Unknown roles rank below Free.
func (r Role) rank() int {
	switch r {
	case RoleFree:
		return 1
	case RoleVIP:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.rank() > 0
}

// Includes reports whether r grants at least the capabilities of other.
func (r Role) Includes(other Role) bool {
	return r.Valid() && other.Valid() && r.rank() >= other.rank()
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a stored role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// UnmarshalJSON rejects unknown role names so corrupted records never
// produce a role with undefined capabilities.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
