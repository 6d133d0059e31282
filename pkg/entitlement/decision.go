package entitlement

import (
	"github.com/dmitrymomot/vipgate/pkg/account"
	"github.com/dmitrymomot/vipgate/pkg/session"
)

// Decision is the routing outcome of an entitlement check.
type Decision struct {
	Allow              bool   `json:"allow"`
	RedirectTo         string `json:"redirectTo,omitempty"`
	PreserveReturnPath bool   `json:"preserveReturnPath,omitempty"`
}

// Allowed is the positive decision.
var Allowed = Decision{Allow: true}

// Routes are the redirect targets used by a decision.
type Routes struct {
	Login    string // unauthenticated
	Home     string // authenticated but not an admin
	Settings string // authenticated but not VIP; hosts the upgrade flow
}

// DefaultRoutes are the targets used by Decide.
var DefaultRoutes = Routes{
	Login:    "/login",
	Home:     "/home",
	Settings: "/settings",
}

// Decide evaluates s against c using DefaultRoutes.
func Decide(s *session.Session, c Capability) Decision {
	return DefaultRoutes.Decide(s, c)
}

// Decide evaluates s against c. Rules apply in order:
// no session redirects to Login keeping the return path, a non-admin asking
// for Admin goes Home, a non-VIP asking for VIP goes to Settings, anything
// else is allowed. It performs no I/O.
func (r Routes) Decide(s *session.Session, c Capability) Decision {
	switch {
	case !s.IsAuthenticated():
		return Decision{RedirectTo: r.Login, PreserveReturnPath: true}
	case c == Admin && s.Role != account.RoleAdmin:
		return Decision{RedirectTo: r.Home}
	case c == VIP && !s.Role.Includes(account.RoleVIP):
		return Decision{RedirectTo: r.Settings}
	default:
		return Allowed
	}
}

// Guard runs fn only when s satisfies c. Otherwise it returns the redirect
// decision and ErrDenied without calling fn.
func Guard(s *session.Session, c Capability, fn func() error) (Decision, error) {
	d := Decide(s, c)
	if !d.Allow {
		return d, ErrDenied
	}
	return d, fn()
}
