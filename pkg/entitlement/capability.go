package entitlement

import (
	"strings"

	"github.com/dmitrymomot/vipgate/pkg/account"
)

// Capability is the entitlement level a feature requires.
type Capability string

const (
	None  Capability = "None"
	VIP   Capability = "VIP"
	Admin Capability = "Admin"
)

// ParseCapability parses a capability name case-insensitively.
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "vip":
		return VIP, nil
	case "admin":
		return Admin, nil
	}
	return "", ErrUnknownCapability
}

func (c Capability) String() string {
	return string(c)
}

// Role returns the least role that satisfies c.
func (c Capability) Role() account.Role {
	switch c {
	case Admin:
		return account.RoleAdmin
	case VIP:
		return account.RoleVIP
	default:
		return account.RoleFree
	}
}
