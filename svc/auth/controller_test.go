package auth_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/vipgate/pkg/account"
	"github.com/dmitrymomot/vipgate/pkg/entitlement"
	"github.com/dmitrymomot/vipgate/pkg/session"
	"github.com/dmitrymomot/vipgate/svc/auth"
)

// flakyDirectory wraps a MemoryDirectory and can simulate an outage or
// block authentication until released.
type flakyDirectory struct {
	*account.MemoryDirectory
	down atomic.Bool
	gate chan struct{}
}

func (d *flakyDirectory) Authenticate(ctx context.Context, email, password string) (*account.Account, error) {
	if d.gate != nil {
		<-d.gate
	}
	if d.down.Load() {
		return nil, account.ErrUnavailable
	}
	return d.MemoryDirectory.Authenticate(ctx, email, password)
}

func (d *flakyDirectory) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if d.down.Load() {
		return nil, errors.Join(account.ErrUnavailable, context.DeadlineExceeded)
	}
	return d.MemoryDirectory.GetByID(ctx, id)
}

func (d *flakyDirectory) SetRole(ctx context.Context, id uuid.UUID, role account.Role) error {
	if d.down.Load() {
		return account.ErrUnavailable
	}
	return d.MemoryDirectory.SetRole(ctx, id, role)
}

const (
	testEmail    = "user@example.com"
	testPassword = "correct horse"
)

func setup(t *testing.T, role account.Role, opts ...auth.Option) (*auth.Controller, *flakyDirectory, *session.MemoryStore, *account.Account) {
	t.Helper()

	dir := &flakyDirectory{MemoryDirectory: account.NewMemoryDirectory(account.WithBcryptCost(bcrypt.MinCost))}
	acc, err := dir.Add(context.Background(), testEmail, testPassword, "Test User", role)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	return auth.NewController(dir, store, opts...), dir, store, acc
}

func TestNewController_PanicsOnNilDeps(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { auth.NewController(nil, session.NewMemoryStore()) })
	assert.Panics(t, func() {
		auth.NewController(account.NewMemoryDirectory(), nil)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("free user is sent to settings for vip content", func(t *testing.T) {
		t.Parallel()
		ctrl, _, store, acc := setup(t, account.RoleFree)
		ctx := context.Background()

		sess, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		assert.Equal(t, acc.ID, sess.AccountID)
		assert.Equal(t, account.RoleFree, sess.Role)

		stored, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, sess.AccountID, stored.AccountID)

		d := entitlement.Decide(stored, entitlement.VIP)
		assert.False(t, d.Allow)
		assert.Equal(t, "/settings", d.RedirectTo)
	})

	t.Run("email is case insensitive", func(t *testing.T) {
		t.Parallel()
		ctrl, _, _, _ := setup(t, account.RoleVIP)

		sess, err := ctrl.Login(context.Background(), "  USER@example.com ", testPassword)
		require.NoError(t, err)
		assert.Equal(t, account.RoleVIP, sess.Role)
	})

	t.Run("uses clock for issue time", func(t *testing.T) {
		t.Parallel()
		fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		ctrl, _, _, _ := setup(t, account.RoleFree, auth.WithClock(func() time.Time { return fixed }))

		sess, err := ctrl.Login(context.Background(), testEmail, testPassword)
		require.NoError(t, err)
		assert.Equal(t, fixed, sess.IssuedAt)
	})

	tests := []struct {
		name     string
		email    string
		password string
		down     bool
		want     error
	}{
		{name: "empty email", email: "", password: testPassword, want: auth.ErrInvalidCredentials},
		{name: "empty password", email: testEmail, password: "", want: auth.ErrInvalidCredentials},
		{name: "wrong password", email: testEmail, password: "nope", want: auth.ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: testPassword, want: auth.ErrInvalidCredentials},
		{name: "directory down", email: testEmail, password: testPassword, down: true, want: auth.ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl, dir, store, _ := setup(t, account.RoleFree)
			ctx := context.Background()

			existing := &session.Session{AccountID: uuid.New(), Role: account.RoleVIP, IssuedAt: time.Now()}
			require.NoError(t, store.Save(ctx, existing))
			dir.down.Store(tt.down)

			sess, err := ctrl.Login(ctx, tt.email, tt.password)
			require.Error(t, err)
			assert.Nil(t, sess)
			assert.ErrorIs(t, err, tt.want)

			// failed logins leave the stored session alone
			stored, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, existing.AccountID, stored.AccountID)
		})
	}
}

func TestLogin_RateLimit(t *testing.T) {
	t.Parallel()

	ctrl, _, _, _ := setup(t, account.RoleFree, auth.WithLoginRateLimit(0.001, 2))
	ctx := context.Background()

	_, err := ctrl.Login(ctx, testEmail, "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = ctrl.Login(ctx, testEmail, "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = ctrl.Login(ctx, testEmail, testPassword)
	assert.ErrorIs(t, err, auth.ErrTooManyAttempts)
	assert.Equal(t, auth.KindTooManyAttempts, auth.KindOf(err))
}

func TestLogout(t *testing.T) {
	t.Parallel()

	ctrl, _, store, _ := setup(t, account.RoleFree)
	ctx := context.Background()

	_, err := ctrl.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	require.NoError(t, ctrl.Logout(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, ok := ctrl.CurrentSession(ctx)
	assert.False(t, ok)

	// logging out twice is harmless
	require.NoError(t, ctrl.Logout(ctx))
}

func TestHoldLogout(t *testing.T) {
	t.Parallel()

	t.Run("logout waits for release", func(t *testing.T) {
		t.Parallel()
		ctrl, _, store, _ := setup(t, account.RoleFree)
		ctx := context.Background()

		_, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)

		release := ctrl.HoldLogout()
		require.NoError(t, ctrl.Logout(ctx))
		assert.True(t, ctrl.LogoutPending())

		_, err = store.Load(ctx)
		require.NoError(t, err, "session must survive while held")

		release()
		assert.False(t, ctrl.LogoutPending())
		_, err = store.Load(ctx)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		// a second release is a no-op
		release()
	})

	t.Run("nested holds", func(t *testing.T) {
		t.Parallel()
		ctrl, _, store, _ := setup(t, account.RoleFree)
		ctx := context.Background()

		_, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)

		r1 := ctrl.HoldLogout()
		r2 := ctrl.HoldLogout()
		require.NoError(t, ctrl.Logout(ctx))

		r1()
		_, err = store.Load(ctx)
		require.NoError(t, err)

		r2()
		_, err = store.Load(ctx)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("login cancels queued logout", func(t *testing.T) {
		t.Parallel()
		ctrl, _, store, _ := setup(t, account.RoleFree)
		ctx := context.Background()

		release := ctrl.HoldLogout()
		require.NoError(t, ctrl.Logout(ctx))
		assert.True(t, ctrl.LogoutPending())

		_, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		assert.False(t, ctrl.LogoutPending())

		release()
		_, err = store.Load(ctx)
		assert.NoError(t, err)
	})

	t.Run("release without logout keeps session", func(t *testing.T) {
		t.Parallel()
		ctrl, _, store, _ := setup(t, account.RoleFree)
		ctx := context.Background()

		_, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)

		ctrl.HoldLogout()()
		_, err = store.Load(ctx)
		assert.NoError(t, err)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	t.Run("reconciles role drift", func(t *testing.T) {
		t.Parallel()
		ctrl, dir, store, acc := setup(t, account.RoleFree)
		ctx := context.Background()

		first, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)

		require.NoError(t, dir.SetRole(ctx, acc.ID, account.RoleVIP))

		sess, err := ctrl.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, account.RoleVIP, sess.Role)
		assert.Equal(t, first.AccountID, sess.AccountID)
		assert.False(t, sess.IssuedAt.Before(first.IssuedAt))

		stored, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, account.RoleVIP, stored.Role)
		assert.True(t, entitlement.Decide(stored, entitlement.VIP).Allow)
	})

	t.Run("downgrade is applied", func(t *testing.T) {
		t.Parallel()
		ctrl, dir, _, acc := setup(t, account.RoleAdmin)
		ctx := context.Background()

		_, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		require.NoError(t, dir.SetRole(ctx, acc.ID, account.RoleFree))

		sess, err := ctrl.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, account.RoleFree, sess.Role)
	})

	t.Run("revoked account clears session", func(t *testing.T) {
		t.Parallel()
		ctrl, dir, store, acc := setup(t, account.RoleVIP)
		ctx := context.Background()

		_, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		require.NoError(t, dir.Remove(ctx, acc.ID))

		sess, err := ctrl.Refresh(ctx)
		assert.Nil(t, sess)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
		assert.ErrorIs(t, err, account.ErrAccountNotFound)

		_, err = store.Load(ctx)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("no session", func(t *testing.T) {
		t.Parallel()
		ctrl, _, _, _ := setup(t, account.RoleFree)

		_, err := ctrl.Refresh(context.Background())
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
		assert.Equal(t, auth.KindUnauthenticated, auth.KindOf(err))
	})

	t.Run("network failure keeps session", func(t *testing.T) {
		t.Parallel()
		ctrl, dir, store, _ := setup(t, account.RoleVIP)
		ctx := context.Background()

		_, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		dir.down.Store(true)

		_, err = ctrl.Refresh(ctx)
		assert.ErrorIs(t, err, auth.ErrNetwork)
		assert.ErrorIs(t, err, account.ErrUnavailable)

		stored, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, account.RoleVIP, stored.Role)
	})
}

func TestRestore(t *testing.T) {
	t.Parallel()

	t.Run("returns cached session when offline", func(t *testing.T) {
		t.Parallel()
		ctrl, dir, _, acc := setup(t, account.RoleVIP)
		ctx := context.Background()

		_, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		dir.down.Store(true)

		sess, err := ctrl.Restore(ctx)
		assert.ErrorIs(t, err, auth.ErrNetwork)
		require.NotNil(t, sess)
		assert.Equal(t, acc.ID, sess.AccountID)
	})

	t.Run("refreshes when online", func(t *testing.T) {
		t.Parallel()
		ctrl, dir, _, acc := setup(t, account.RoleFree)
		ctx := context.Background()

		_, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		require.NoError(t, dir.SetRole(ctx, acc.ID, account.RoleAdmin))

		sess, err := ctrl.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, account.RoleAdmin, sess.Role)
	})

	t.Run("nothing stored", func(t *testing.T) {
		t.Parallel()
		ctrl, _, _, _ := setup(t, account.RoleFree)

		sess, err := ctrl.Restore(context.Background())
		assert.Nil(t, sess)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}

func TestPromote(t *testing.T) {
	t.Parallel()

	t.Run("signed in account", func(t *testing.T) {
		t.Parallel()
		ctrl, dir, _, acc := setup(t, account.RoleFree)
		ctx := context.Background()

		_, err := ctrl.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)

		_, err = ctrl.Promote(ctx, acc.ID, account.Role("Gold"))
		assert.ErrorIs(t, err, account.ErrInvalidRole)

		sess, err := ctrl.Promote(ctx, acc.ID, account.RoleVIP)
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, account.RoleVIP, sess.Role)

		got, err := dir.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, account.RoleVIP, got.Role)

		dir.down.Store(true)
		_, err = ctrl.Promote(ctx, acc.ID, account.RoleAdmin)
		assert.ErrorIs(t, err, auth.ErrNetwork)
	})

	t.Run("no session", func(t *testing.T) {
		t.Parallel()
		ctrl, dir, store, acc := setup(t, account.RoleFree)
		ctx := context.Background()

		sess, err := ctrl.Promote(ctx, acc.ID, account.RoleVIP)
		require.NoError(t, err)
		assert.Nil(t, sess)

		got, err := dir.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, account.RoleVIP, got.Role)

		_, err = store.Load(ctx)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("other account signed in", func(t *testing.T) {
		t.Parallel()
		ctrl, dir, store, payer := setup(t, account.RoleFree)
		ctx := context.Background()

		other, err := dir.Add(ctx, "other@example.com", testPassword, "Other", account.RoleFree)
		require.NoError(t, err)
		_, err = ctrl.Login(ctx, "other@example.com", testPassword)
		require.NoError(t, err)

		sess, err := ctrl.Promote(ctx, payer.ID, account.RoleVIP)
		require.NoError(t, err)
		assert.Nil(t, sess)

		got, err := dir.GetByID(ctx, payer.ID)
		require.NoError(t, err)
		assert.Equal(t, account.RoleVIP, got.Role)

		cur, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, other.ID, cur.AccountID)
		assert.Equal(t, account.RoleFree, cur.Role)

		got, err = dir.GetByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, account.RoleFree, got.Role)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		ctrl, _, _, _ := setup(t, account.RoleFree)

		_, err := ctrl.Promote(context.Background(), uuid.New(), account.RoleVIP)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}

func TestAsync_PreservesCallOrder(t *testing.T) {
	t.Parallel()

	dir := &flakyDirectory{
		MemoryDirectory: account.NewMemoryDirectory(account.WithBcryptCost(bcrypt.MinCost)),
		gate:            make(chan struct{}),
	}
	acc, err := dir.Add(context.Background(), testEmail, testPassword, "", account.RoleFree)
	require.NoError(t, err)
	require.NoError(t, dir.SetRole(context.Background(), acc.ID, account.RoleVIP))

	ctrl := auth.NewController(dir, session.NewMemoryStore())
	ctx := context.Background()

	login := ctrl.LoginAsync(ctx, testEmail, testPassword)
	refresh := ctrl.RefreshAsync(ctx)

	// login is blocked in the directory; refresh must not overtake it
	select {
	case <-refresh.Done():
		t.Fatal("refresh completed before login")
	case <-time.After(50 * time.Millisecond):
	}
	close(dir.gate)

	sess, err := login.Await()
	require.NoError(t, err)
	assert.Equal(t, acc.ID, sess.AccountID)

	refreshed, err := refresh.Await()
	require.NoError(t, err)
	assert.Equal(t, acc.ID, refreshed.AccountID)
	assert.Equal(t, account.RoleVIP, refreshed.Role)
}

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &auth.Error{Kind: auth.KindNetwork, Err: cause}

	assert.Equal(t, "auth.network: boom", err.Error())
	assert.ErrorIs(t, err, auth.ErrNetwork)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, "auth.unauthenticated", auth.ErrUnauthenticated.Error())
	assert.Equal(t, auth.Kind(""), auth.KindOf(cause))
}
