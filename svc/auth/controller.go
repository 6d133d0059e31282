package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/vipgate/pkg/account"
	"github.com/dmitrymomot/vipgate/pkg/async"
	"github.com/dmitrymomot/vipgate/pkg/logger"
	"github.com/dmitrymomot/vipgate/pkg/session"
)

// Controller owns the session lifecycle.
type Controller struct {
	dir   account.Directory
	store session.Store
	log   *slog.Logger

	dirTimeout time.Duration
	limiter    *rate.Limiter
	now        func() time.Time

	seq *sequencer

	holdMu        sync.Mutex
	holds         int
	pendingLogout context.Context // non-nil while a logout waits for holds to drain
}

// NewController creates a controller. Panics if dir or store is nil.
func NewController(dir account.Directory, store session.Store, opts ...Option) *Controller {
	if dir == nil {
		panic("auth: account directory is required")
	}
	if store == nil {
		panic("auth: session store is required")
	}

	c := &Controller{
		dir:        dir,
		store:      store,
		log:        logger.Discard(),
		dirTimeout: 10 * time.Second,
		now:        func() time.Time { return time.Now().UTC() },
		seq:        newSequencer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("auth"))
	return c
}

// Login authenticates the credentials and stores a new session.
// Empty or wrong credentials fail with ErrInvalidCredentials, an unreachable
// directory with ErrNetwork. A failed login leaves any existing session untouched.
func (c *Controller) Login(ctx context.Context, email, password string) (*session.Session, error) {
	return c.login(ctx, c.seq.ticket(), email, password)
}

// LoginAsync starts Login and returns immediately. Its place in the write
// order is fixed at call time.
func (c *Controller) LoginAsync(ctx context.Context, email, password string) *async.Future[*session.Session] {
	t := c.seq.ticket()
	return async.Go(context.WithoutCancel(ctx), func(context.Context) (*session.Session, error) {
		return c.login(ctx, t, email, password)
	})
}

func (c *Controller) login(ctx context.Context, ticket uint64, email, password string) (sess *session.Session, err error) {
	c.seq.run(ticket, func() {
		sess, err = c.loginLocked(ctx, email, password)
	})
	return sess, err
}

func (c *Controller) loginLocked(ctx context.Context, email, password string) (*session.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, newError(KindInvalidCredentials, errors.New("email and password are required"))
	}
	if c.limiter != nil && !c.limiter.Allow() {
		c.log.WarnContext(ctx, "login throttled")
		return nil, ErrTooManyAttempts
	}

	dctx, cancel := c.dirContext(ctx)
	acc, err := c.dir.Authenticate(dctx, email, password)
	cancel()
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) || errors.Is(err, account.ErrAccountNotFound) {
			c.log.InfoContext(ctx, "login rejected", logger.Event("login_failed"))
			return nil, newError(KindInvalidCredentials, err)
		}
		c.log.ErrorContext(ctx, "directory unavailable during login", logger.Error(err))
		return nil, newError(KindNetwork, err)
	}

	sess := &session.Session{AccountID: acc.ID, Role: acc.Role, IssuedAt: c.now()}
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	// a fresh login supersedes a logout queued behind a payment
	c.holdMu.Lock()
	c.pendingLogout = nil
	c.holdMu.Unlock()

	c.log.InfoContext(ctx, "logged in", logger.AccountID(sess.AccountID), logger.Role(sess.Role))
	return sess.Clone(), nil
}

// Logout clears the session. While a payment holds logout (see HoldLogout)
// the logout is queued and Logout returns nil immediately; the queued logout
// runs when the last hold is released.
func (c *Controller) Logout(ctx context.Context) error {
	c.holdMu.Lock()
	if c.holds > 0 {
		c.pendingLogout = context.WithoutCancel(ctx)
		c.holdMu.Unlock()
		c.log.InfoContext(ctx, "logout deferred until payment completes")
		return nil
	}
	c.holdMu.Unlock()

	return c.logout(ctx, c.seq.ticket())
}

func (c *Controller) logout(ctx context.Context, ticket uint64) (err error) {
	c.seq.run(ticket, func() {
		err = c.store.Clear(ctx)
	})
	if err == nil {
		c.log.InfoContext(ctx, "logged out")
	}
	return err
}

// LogoutPending reports whether a logout is queued behind a hold.
func (c *Controller) LogoutPending() bool {
	c.holdMu.Lock()
	defer c.holdMu.Unlock()
	return c.pendingLogout != nil
}

// HoldLogout defers logouts until the returned release func is called.
// Holds nest; a queued logout runs on the last release. Release is idempotent.
func (c *Controller) HoldLogout() (release func()) {
	c.holdMu.Lock()
	c.holds++
	c.holdMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(c.releaseHold)
	}
}

func (c *Controller) releaseHold() {
	c.holdMu.Lock()
	c.holds--
	var pending context.Context
	if c.holds == 0 && c.pendingLogout != nil {
		pending, c.pendingLogout = c.pendingLogout, nil
	}
	c.holdMu.Unlock()

	if pending != nil {
		if err := c.logout(pending, c.seq.ticket()); err != nil {
			c.log.ErrorContext(pending, "deferred logout failed", logger.Error(err))
		}
	}
}

// Refresh re-reads the account and overwrites the cached role.
// No stored session or a vanished account fail with ErrUnauthenticated and
// clear the store; an unreachable directory fails with ErrNetwork and keeps it.
func (c *Controller) Refresh(ctx context.Context) (*session.Session, error) {
	return c.refresh(ctx, c.seq.ticket())
}

// RefreshAsync starts Refresh and returns immediately.
func (c *Controller) RefreshAsync(ctx context.Context) *async.Future[*session.Session] {
	t := c.seq.ticket()
	return async.Go(context.WithoutCancel(ctx), func(context.Context) (*session.Session, error) {
		return c.refresh(ctx, t)
	})
}

func (c *Controller) refresh(ctx context.Context, ticket uint64) (sess *session.Session, err error) {
	c.seq.run(ticket, func() {
		sess, err = c.refreshLocked(ctx)
	})
	return sess, err
}

func (c *Controller) refreshLocked(ctx context.Context) (*session.Session, error) {
	cur, err := c.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	dctx, cancel := c.dirContext(ctx)
	acc, err := c.dir.GetByID(dctx, cur.AccountID)
	cancel()
	if err != nil {
		return nil, c.directoryError(ctx, cur, "refresh", err)
	}

	next := &session.Session{AccountID: cur.AccountID, Role: acc.Role, IssuedAt: c.now()}
	if err := c.store.Save(ctx, next); err != nil {
		return nil, err
	}
	if next.Role != cur.Role {
		c.log.InfoContext(ctx, "session role reconciled",
			logger.AccountID(next.AccountID),
			slog.String("from", cur.Role.String()),
			slog.String("to", next.Role.String()),
		)
	}
	return next.Clone(), nil
}

// Restore validates a stored session at startup by refreshing it.
// On ErrNetwork the cached session is returned along with the error so the
// caller can continue with the last known role.
func (c *Controller) Restore(ctx context.Context) (*session.Session, error) {
	sess, err := c.Refresh(ctx)
	if err != nil && errors.Is(err, ErrNetwork) {
		if cached, ok := c.CurrentSession(ctx); ok {
			return cached, err
		}
	}
	return sess, err
}

// CurrentSession reads the stored session without waiting on pending writes.
func (c *Controller) CurrentSession(ctx context.Context) (*session.Session, bool) {
	sess, err := c.store.Load(ctx)
	if err != nil {
		return nil, false
	}
	return sess, true
}

// Promote sets the role of accountID in the directory. When the stored
// session belongs to that account it is refreshed so the new role is visible
// and returned. Otherwise the stored session, if any, is left untouched and
// Promote returns a nil session: the directory is the source of truth and
// the other account's next Refresh or Login picks the role up.
//
// A missing account fails with ErrUnauthenticated, an unreachable directory
// with ErrNetwork.
func (c *Controller) Promote(ctx context.Context, accountID uuid.UUID, role account.Role) (sess *session.Session, err error) {
	c.seq.run(c.seq.ticket(), func() {
		sess, err = c.promoteLocked(ctx, accountID, role)
	})
	return sess, err
}

func (c *Controller) promoteLocked(ctx context.Context, accountID uuid.UUID, role account.Role) (*session.Session, error) {
	if !role.Valid() {
		return nil, account.ErrInvalidRole
	}

	dctx, cancel := c.dirContext(ctx)
	err := c.dir.SetRole(dctx, accountID, role)
	cancel()

	cur, loadErr := c.store.Load(ctx)
	owned := loadErr == nil && cur.AccountID == accountID
	if err != nil {
		if owned {
			return nil, c.directoryError(ctx, cur, "promote", err)
		}
		c.log.ErrorContext(ctx, "role update failed", logger.AccountID(accountID), logger.Error(err))
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, newError(KindUnauthenticated, err)
		}
		return nil, newError(KindNetwork, err)
	}
	c.log.InfoContext(ctx, "account role updated", logger.AccountID(accountID), logger.Role(role))

	if !owned {
		c.log.DebugContext(ctx, "promoted account is not signed in", logger.AccountID(accountID))
		return nil, nil
	}
	return c.refreshLocked(ctx)
}

func (c *Controller) loadLocked(ctx context.Context) (*session.Session, error) {
	cur, err := c.store.Load(ctx)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, newError(KindUnauthenticated, err)
	}
	return cur, err
}

// directoryError maps a directory failure for the current session.
// A missing account revokes the session.
func (c *Controller) directoryError(ctx context.Context, cur *session.Session, op string, err error) error {
	if errors.Is(err, account.ErrAccountNotFound) {
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			c.log.ErrorContext(ctx, "failed to clear revoked session", logger.Error(clearErr))
		}
		c.log.WarnContext(ctx, "session revoked: account no longer exists",
			logger.AccountID(cur.AccountID), slog.String("op", op))
		return newError(KindUnauthenticated, err)
	}
	c.log.ErrorContext(ctx, "directory unavailable",
		logger.AccountID(cur.AccountID), slog.String("op", op), logger.Error(err))
	return newError(KindNetwork, err)
}

func (c *Controller) dirContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.dirTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.dirTimeout)
}
