package entitlement_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vipgate/pkg/account"
	"github.com/dmitrymomot/vipgate/pkg/entitlement"
	"github.com/dmitrymomot/vipgate/pkg/session"
)

func sessionWithRole(role account.Role) *session.Session {
	return session.New(&account.Account{ID: uuid.New(), Role: role})
}

var (
	toLogin    = entitlement.Decision{RedirectTo: "/login", PreserveReturnPath: true}
	toHome     = entitlement.Decision{RedirectTo: "/home"}
	toSettings = entitlement.Decision{RedirectTo: "/settings"}
	allow      = entitlement.Decision{Allow: true}
)

func TestDecide_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role account.Role
		cap  entitlement.Capability
		want entitlement.Decision
	}{
		{account.RoleFree, entitlement.None, allow},
		{account.RoleFree, entitlement.VIP, toSettings},
		{account.RoleFree, entitlement.Admin, toHome},
		{account.RoleVIP, entitlement.None, allow},
		{account.RoleVIP, entitlement.VIP, allow},
		{account.RoleVIP, entitlement.Admin, toHome},
		{account.RoleAdmin, entitlement.None, allow},
		{account.RoleAdmin, entitlement.VIP, allow},
		{account.RoleAdmin, entitlement.Admin, allow},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.cap), func(t *testing.T) {
			assert.Equal(t, tt.want, entitlement.Decide(sessionWithRole(tt.role), tt.cap))
		})
	}
}

func TestDecide_NoSession(t *testing.T) {
	t.Parallel()

	for _, c := range []entitlement.Capability{entitlement.None, entitlement.VIP, entitlement.Admin} {
		assert.Equal(t, toLogin, entitlement.Decide(nil, c), c)
		assert.Equal(t, toLogin, entitlement.Decide(&session.Session{}, c), c)
	}
}

func TestDecide_IsPure(t *testing.T) {
	t.Parallel()
	s := sessionWithRole(account.RoleVIP)
	before := *s

	first := entitlement.Decide(s, entitlement.Admin)
	second := entitlement.Decide(s, entitlement.Admin)

	assert.Equal(t, first, second)
	assert.Equal(t, before, *s)
}

func TestRoutes_Decide(t *testing.T) {
	t.Parallel()
	routes := entitlement.Routes{Login: "/auth/sign-in", Home: "/", Settings: "/account/upgrade"}

	assert.Equal(t,
		entitlement.Decision{RedirectTo: "/auth/sign-in", PreserveReturnPath: true},
		routes.Decide(nil, entitlement.VIP))
	assert.Equal(t,
		entitlement.Decision{RedirectTo: "/account/upgrade"},
		routes.Decide(sessionWithRole(account.RoleFree), entitlement.VIP))
	assert.Equal(t,
		entitlement.Decision{RedirectTo: "/"},
		routes.Decide(sessionWithRole(account.RoleVIP), entitlement.Admin))
}

func TestDecision_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(toLogin)
	require.NoError(t, err)
	assert.JSONEq(t, `{"allow":false,"redirectTo":"/login","preserveReturnPath":true}`, string(data))

	data, err = json.Marshal(allow)
	require.NoError(t, err)
	assert.JSONEq(t, `{"allow":true}`, string(data))

	data, err = json.Marshal(toSettings)
	require.NoError(t, err)
	assert.JSONEq(t, `{"allow":false,"redirectTo":"/settings"}`, string(data))
}

func TestGuard(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	called := false
	d, err := entitlement.Guard(sessionWithRole(account.RoleFree), entitlement.VIP, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, entitlement.ErrDenied)
	assert.Equal(t, toSettings, d)
	assert.False(t, called)

	d, err = entitlement.Guard(sessionWithRole(account.RoleVIP), entitlement.VIP, func() error {
		called = true
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, d.Allow)
	assert.True(t, called)
}

func TestParseCapability(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]entitlement.Capability{
		"":      entitlement.None,
		"none":  entitlement.None,
		"VIP":   entitlement.VIP,
		" vip ": entitlement.VIP,
		"Admin": entitlement.Admin,
	} {
		got, err := entitlement.ParseCapability(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := entitlement.ParseCapability("root")
	assert.ErrorIs(t, err, entitlement.ErrUnknownCapability)

	assert.Equal(t, account.RoleVIP, entitlement.VIP.Role())
	assert.Equal(t, account.RoleAdmin, entitlement.Admin.Role())
	assert.Equal(t, account.RoleFree, entitlement.None.Role())
}
