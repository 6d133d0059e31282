package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vipgate/pkg/account"
	"github.com/dmitrymomot/vipgate/pkg/session"
)

func newSession(role account.Role) *session.Session {
	return session.New(&account.Account{ID: uuid.New(), Role: role})
}

func TestNew(t *testing.T) {
	t.Parallel()
	acc := &account.Account{ID: uuid.New(), Email: "a@example.com", Role: account.RoleVIP}

	s := session.New(acc)

	assert.Equal(t, acc.ID, s.AccountID)
	assert.Equal(t, account.RoleVIP, s.Role)
	assert.WithinDuration(t, time.Now(), s.IssuedAt, time.Second)
	assert.NoError(t, s.Validate())
}

func TestSession_HasRole(t *testing.T) {
	t.Parallel()

	var nilSession *session.Session
	assert.False(t, nilSession.HasRole(account.RoleFree))
	assert.False(t, nilSession.IsAuthenticated())

	vip := newSession(account.RoleVIP)
	assert.True(t, vip.HasRole(account.RoleFree))
	assert.True(t, vip.HasRole(account.RoleVIP))
	assert.False(t, vip.HasRole(account.RoleAdmin))
}

func TestSession_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    *session.Session
	}{
		{"nil", nil},
		{"no account", &session.Session{Role: account.RoleFree, IssuedAt: time.Now()}},
		{"unknown role", &session.Session{AccountID: uuid.New(), Role: "Guest", IssuedAt: time.Now()}},
		{"zero issued at", &session.Session{AccountID: uuid.New(), Role: account.RoleFree}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.s.Validate(), session.ErrInvalidSession)
		})
	}
}

func TestContext(t *testing.T) {
	t.Parallel()
	s := newSession(account.RoleFree)

	got, ok := session.FromContext(session.WithSession(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = session.FromContext(context.Background())
	assert.False(t, ok)

	_, ok = session.FromContext(session.WithSession(context.Background(), nil))
	assert.False(t, ok)
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, role := range []account.Role{account.RoleFree, account.RoleVIP, account.RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			s := newSession(role)

			data, err := session.Marshal(s)
			require.NoError(t, err)

			got, err := session.Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, s.AccountID, got.AccountID)
			assert.Equal(t, s.Role, got.Role)
			assert.True(t, s.IssuedAt.Equal(got.IssuedAt))
		})
	}
}

func TestCodec_Layout(t *testing.T) {
	t.Parallel()
	id := uuid.MustParse("0b9b6f1e-3c4a-4b8e-9d2f-5a6b7c8d9e0f")
	s := &session.Session{
		AccountID: id,
		Role:      account.RoleVIP,
		IssuedAt:  time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
	}

	data, err := session.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"accountId":"0b9b6f1e-3c4a-4b8e-9d2f-5a6b7c8d9e0f","role":"VIP","issuedAt":"2024-05-01T12:30:00Z"}`,
		string(data),
	)
}

func TestCodec_Malformed(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"not json":        `{{{`,
		"foreign object":  `{"Id":7,"email":"x@example.com"}`,
		"bad uuid":        `{"accountId":"nope","role":"Free","issuedAt":"2024-05-01T12:30:00Z"}`,
		"unknown role":    `{"accountId":"0b9b6f1e-3c4a-4b8e-9d2f-5a6b7c8d9e0f","role":"Root","issuedAt":"2024-05-01T12:30:00Z"}`,
		"missing issued":  `{"accountId":"0b9b6f1e-3c4a-4b8e-9d2f-5a6b7c8d9e0f","role":"Free"}`,
		"array":           `[1,2,3]`,
		"bad issued date": `{"accountId":"0b9b6f1e-3c4a-4b8e-9d2f-5a6b7c8d9e0f","role":"Free","issuedAt":"yesterday"}`,
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := session.Unmarshal([]byte(in))
			assert.ErrorIs(t, err, session.ErrMalformedSession)
		})
	}
}
