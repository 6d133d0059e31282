package upgrade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/vipgate/pkg/account"
	"github.com/dmitrymomot/vipgate/pkg/async"
	"github.com/dmitrymomot/vipgate/pkg/logger"
	"github.com/dmitrymomot/vipgate/pkg/payment"
	"github.com/dmitrymomot/vipgate/pkg/session"
	"github.com/dmitrymomot/vipgate/pkg/statemachine"
)

// Sessions is the part of the session controller the coordinator needs.
// *auth.Controller implements it.
type Sessions interface {
	CurrentSession(ctx context.Context) (*session.Session, bool)
	Promote(ctx context.Context, accountID uuid.UUID, role account.Role) (*session.Session, error)
	HoldLogout() (release func())
}

// Attempt is a point-in-time snapshot of an upgrade attempt.
type Attempt struct {
	ID                uuid.UUID     `json:"id"`
	AccountID         uuid.UUID     `json:"accountId"`
	PlanID            string        `json:"planId"`
	PriceRef          string        `json:"priceRef"`
	PaymentMethodRef  string        `json:"paymentMethodRef,omitempty"`
	Status            Status        `json:"status"`
	FailureReason     FailureReason `json:"failureReason,omitempty"`
	TransactionID     string        `json:"transactionId,omitempty"`
	EntitlementSynced bool          `json:"entitlementSynced"`
}

type attempt struct {
	Attempt
	sm *machine

	// charges counts gateway calls; each call gets its own idempotency key
	charges int
}

// idempotencyKey identifies the next charge of the attempt. A retried
// charge carries a different payment method, so it must not reuse the key
// of the failed one.
func (a *attempt) idempotencyKey() string {
	return fmt.Sprintf("%s-%d", a.ID, a.charges)
}

// Coordinator runs upgrade attempts for the current session. Safe for
// concurrent use; status reads never wait on an in-flight charge.
type Coordinator struct {
	gateway  payment.Gateway
	sessions Sessions
	catalog  *Catalog

	log           *slog.Logger
	chargeTimeout time.Duration
	registerer    prometheus.Registerer
	metrics       *metrics

	mu      sync.Mutex
	current *attempt
}

// NewCoordinator creates a coordinator. Panics if a dependency is nil.
func NewCoordinator(gw payment.Gateway, sessions Sessions, catalog *Catalog, opts ...Option) *Coordinator {
	if gw == nil {
		panic("upgrade: payment gateway is required")
	}
	if sessions == nil {
		panic("upgrade: sessions are required")
	}
	if catalog == nil {
		panic("upgrade: catalog is required")
	}

	c := &Coordinator{
		gateway:       gw,
		sessions:      sessions,
		catalog:       catalog,
		log:           logger.Discard(),
		chargeTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("upgrade"))
	c.metrics = newMetrics(c.registerer)
	return c
}

// NewFromConfig builds the catalogue from cfg and creates a coordinator.
func NewFromConfig(cfg Config, gw payment.Gateway, sessions Sessions, opts ...Option) (*Coordinator, error) {
	catalog, err := NewCatalog(cfg.PlanPrices, cfg.CatalogOptions()...)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithChargeTimeout(cfg.ChargeTimeout)}, opts...)
	return NewCoordinator(gw, sessions, catalog, opts...), nil
}

// Status returns a snapshot of the current attempt, or an Idle attempt when
// there is none.
func (c *Coordinator) Status() Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// SelectPlan discards any previous attempt and starts a new one for planID.
// An empty priceRef takes the plan's canonical price. It fails with
// ErrInvalidState while a charge is in flight.
func (c *Coordinator) SelectPlan(ctx context.Context, planID, priceRef string) (Attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.current.sm.Is(StatusSubmitting) {
		return c.snapshot(), fmt.Errorf("%w: charge in progress", ErrInvalidState)
	}

	plan, err := c.catalog.Plan(planID)
	if err != nil {
		return c.snapshot(), err
	}
	sess, ok := c.sessions.CurrentSession(ctx)
	if !ok {
		return c.snapshot(), ErrNotAuthenticated
	}
	if sess.HasRole(account.RoleVIP) {
		return c.snapshot(), ErrAlreadyEntitled
	}
	if priceRef == "" {
		priceRef = plan.PriceRef
	}

	a := &attempt{Attempt: Attempt{
		ID:        uuid.New(),
		AccountID: sess.AccountID,
		PlanID:    plan.ID,
		PriceRef:  priceRef,
	}}
	a.sm = newMachine(
		func() bool { return !a.FailureReason.Fatal() },
		c.transitionLogger(a.ID),
	)
	if err := a.sm.Fire(ctx, EventSelect, nil); err != nil {
		return c.snapshot(), err
	}
	c.discardLocked(ctx)
	c.current = a

	c.log.InfoContext(ctx, "upgrade attempt started",
		logger.AttemptID(a.ID), logger.AccountID(a.AccountID), logger.PlanID(a.PlanID))
	return c.snapshot(), nil
}

// ProvideCard moves to payment method entry.
func (c *Coordinator) ProvideCard(ctx context.Context) (Attempt, error) {
	return c.fire(ctx, EventProvideCard, nil)
}

// Back returns from payment method entry to the selected plan.
func (c *Coordinator) Back(ctx context.Context) (Attempt, error) {
	return c.fire(ctx, EventBack, func(a *attempt) { a.PaymentMethodRef = "" })
}

// Retry returns a failed attempt to payment method entry. A new payment
// method must be tokenized before submitting again. Fatal failures cannot
// be retried.
func (c *Coordinator) Retry(ctx context.Context) (Attempt, error) {
	return c.fire(ctx, EventRetry, func(a *attempt) {
		a.FailureReason = ReasonNone
		a.PaymentMethodRef = ""
	})
}

// Close discards the attempt. It fails with ErrInvalidState while a charge
// is in flight.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}
	if c.current.sm.Is(StatusSubmitting) {
		return fmt.Errorf("%w: charge in progress", ErrInvalidState)
	}
	c.discardLocked(ctx)
	return nil
}

// discardLocked drops the current attempt. Attempts left before reaching a
// terminal status are counted as abandoned.
func (c *Coordinator) discardLocked(ctx context.Context) {
	a := c.current
	if a == nil {
		return
	}
	status := a.sm.Current()
	c.log.DebugContext(ctx, "upgrade attempt closed", logger.AttemptID(a.ID), logger.State(status))
	if !status.Terminal() {
		c.metrics.outcome(outcomeAbandoned)
	}
	c.current = nil
}

// Tokenize creates a payment method for card and attaches it to the attempt.
// Card validation failures return payment.ErrInvalidCard and leave the
// attempt unchanged.
func (c *Coordinator) Tokenize(ctx context.Context, card payment.CardDetails) (Attempt, error) {
	c.mu.Lock()
	a := c.current
	if a == nil || !a.sm.CanFire(ctx, EventTokenized, nil) {
		snap, err := c.snapshot(), c.stateError(EventTokenized)
		c.mu.Unlock()
		return snap, err
	}
	c.mu.Unlock()

	ref, err := c.gateway.CreatePaymentMethod(ctx, card)
	if err != nil {
		c.log.InfoContext(ctx, "payment method rejected", logger.AttemptID(a.ID), logger.Error(err))
		return c.Status(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != a {
		return c.snapshot(), fmt.Errorf("%w: attempt was replaced", ErrInvalidState)
	}
	if err := c.fireLocked(ctx, a, EventTokenized); err != nil {
		return c.snapshot(), err
	}
	a.PaymentMethodRef = ref
	return c.snapshot(), nil
}

// Submit charges the selected plan with the payment method attached by
// Tokenize. paymentMethodRef may be empty or repeat that reference; any other
// reference, including one discarded by Back or Retry, fails with
// ErrPaymentMethodRequired, so every charge after a failure needs a freshly
// tokenized card.
//
// A Submit while a charge is in flight returns the current snapshot and nil.
// A price reference that does not match the catalogue fails the attempt with
// ErrInvalidPriceRef without calling the gateway. The charge is detached from
// ctx cancellation and bounded by the charge timeout. On success the account
// is promoted to VIP before the attempt reports Succeeded; a failed promotion
// returns ErrEntitlementSyncFailed with EntitlementSynced=false.
func (c *Coordinator) Submit(ctx context.Context, paymentMethodRef string) (Attempt, error) {
	c.mu.Lock()
	a := c.current
	if a != nil && a.sm.Is(StatusSubmitting) {
		snap := c.snapshot()
		c.mu.Unlock()
		c.log.DebugContext(ctx, "duplicate submit ignored", logger.AttemptID(a.ID))
		return snap, nil
	}
	if a == nil || !a.sm.CanFire(ctx, EventSubmit, nil) {
		snap, err := c.snapshot(), c.stateError(EventSubmit)
		c.mu.Unlock()
		return snap, err
	}

	if a.PaymentMethodRef == "" {
		snap := c.snapshot()
		c.mu.Unlock()
		return snap, ErrPaymentMethodRequired
	}
	if paymentMethodRef != "" && paymentMethodRef != a.PaymentMethodRef {
		snap := c.snapshot()
		c.mu.Unlock()
		c.log.WarnContext(ctx, "submit with a payment method not tokenized for this attempt",
			logger.AttemptID(a.ID))
		return snap, fmt.Errorf("%w: payment method was not tokenized for this attempt", ErrPaymentMethodRequired)
	}
	paymentMethodRef = a.PaymentMethodRef
	sess, ok := c.sessions.CurrentSession(ctx)
	if !ok || sess.AccountID != a.AccountID {
		snap := c.snapshot()
		c.mu.Unlock()
		return snap, ErrNotAuthenticated
	}

	plan, err := c.catalog.Plan(a.PlanID)
	if err != nil || plan.PriceRef != a.PriceRef {
		perr := &PaymentError{Reason: ReasonInvalidPriceRef, Err: err}
		if fireErr := c.fireLocked(ctx, a, EventPriceRejected); fireErr != nil {
			c.mu.Unlock()
			return c.Status(), fireErr
		}
		a.FailureReason = ReasonInvalidPriceRef
		a.PaymentMethodRef = ""
		snap := c.snapshot()
		c.mu.Unlock()

		c.log.ErrorContext(ctx, "price reference does not match catalogue",
			logger.AttemptID(a.ID),
			logger.AccountID(a.AccountID),
			logger.PlanID(a.PlanID),
			slog.String("price_ref", a.PriceRef),
			slog.String("expected_price_ref", plan.PriceRef),
		)
		c.metrics.outcome(outcomeInvalidPrice)
		return snap, perr
	}

	if err := c.fireLocked(ctx, a, EventSubmit); err != nil {
		c.mu.Unlock()
		return c.Status(), err
	}
	a.charges++
	req := payment.ChargeRequest{
		PriceRef:         a.PriceRef,
		PaymentMethodRef: paymentMethodRef,
		AccountID:        a.AccountID,
		IdempotencyKey:   a.idempotencyKey(),
	}
	release := c.sessions.HoldLogout()
	c.mu.Unlock()
	defer release()

	return c.charge(context.WithoutCancel(ctx), a, req)
}

// SubmitAsync starts Submit and returns immediately.
func (c *Coordinator) SubmitAsync(ctx context.Context, paymentMethodRef string) *async.Future[Attempt] {
	return async.Go(ctx, func(ctx context.Context) (Attempt, error) {
		return c.Submit(ctx, paymentMethodRef)
	})
}

func (c *Coordinator) charge(ctx context.Context, a *attempt, req payment.ChargeRequest) (Attempt, error) {
	cctx, cancel := context.WithTimeout(ctx, c.chargeTimeout)
	start := time.Now()
	receipt, err := c.gateway.Charge(cctx, req)
	elapsed := time.Since(start)
	cancel()
	c.metrics.chargeDuration.Observe(elapsed.Seconds())

	if err != nil {
		reason := reasonOf(err)
		c.mu.Lock()
		if fireErr := c.fireLocked(ctx, a, EventChargeFailed); fireErr != nil {
			c.mu.Unlock()
			return c.Status(), errors.Join(fireErr, err)
		}
		a.FailureReason = reason
		a.PaymentMethodRef = ""
		snap := c.snapshot()
		c.mu.Unlock()

		c.log.WarnContext(ctx, "charge failed",
			logger.AttemptID(a.ID),
			logger.AccountID(a.AccountID),
			logger.PlanID(a.PlanID),
			logger.Outcome(string(reason)),
			logger.Duration(elapsed),
			logger.Error(err),
		)
		c.metrics.outcome(outcomeFor(reason))
		return snap, &PaymentError{Reason: reason, Err: err}
	}

	c.log.InfoContext(ctx, "charge succeeded",
		logger.AttemptID(a.ID),
		logger.AccountID(a.AccountID),
		logger.TransactionID(receipt.TransactionID),
		logger.Duration(elapsed),
	)

	_, syncErr := c.sessions.Promote(ctx, a.AccountID, account.RoleVIP)

	c.mu.Lock()
	if fireErr := c.fireLocked(ctx, a, EventChargeSucceeded); fireErr != nil {
		c.mu.Unlock()
		return c.Status(), fireErr
	}
	a.TransactionID = receipt.TransactionID
	a.EntitlementSynced = syncErr == nil
	snap := c.snapshot()
	c.mu.Unlock()

	if syncErr != nil {
		c.log.ErrorContext(ctx, "charge succeeded but role promotion failed",
			logger.AttemptID(a.ID),
			logger.AccountID(a.AccountID),
			logger.TransactionID(receipt.TransactionID),
			logger.Error(syncErr),
		)
		c.metrics.outcome(outcomeSyncFailed)
		return snap, errors.Join(ErrEntitlementSyncFailed, syncErr)
	}
	c.metrics.outcome(outcomeSucceeded)
	return snap, nil
}

// RetryEntitlementSync repeats the role promotion for a paid attempt whose
// promotion failed. The account that paid is promoted even when another
// account has signed in since. It never charges.
func (c *Coordinator) RetryEntitlementSync(ctx context.Context) (Attempt, error) {
	c.mu.Lock()
	a := c.current
	if a == nil || !a.sm.Is(StatusSucceeded) || a.EntitlementSynced {
		snap := c.snapshot()
		c.mu.Unlock()
		return snap, fmt.Errorf("%w: no pending entitlement sync", ErrInvalidState)
	}
	c.mu.Unlock()

	if _, err := c.sessions.Promote(ctx, a.AccountID, account.RoleVIP); err != nil {
		c.log.ErrorContext(ctx, "entitlement sync retry failed", logger.AttemptID(a.ID), logger.Error(err))
		return c.Status(), errors.Join(ErrEntitlementSyncFailed, err)
	}

	c.mu.Lock()
	a.EntitlementSynced = true
	snap := c.snapshot()
	c.mu.Unlock()

	c.log.InfoContext(ctx, "entitlement synced", logger.AttemptID(a.ID), logger.AccountID(a.AccountID))
	c.metrics.outcome(outcomeSucceeded)
	return snap, nil
}

// fire applies event to the current attempt and runs mutate on success.
func (c *Coordinator) fire(ctx context.Context, event Event, mutate func(*attempt)) (Attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return c.snapshot(), c.stateError(event)
	}
	if err := c.fireLocked(ctx, c.current, event); err != nil {
		return c.snapshot(), err
	}
	if mutate != nil {
		mutate(c.current)
	}
	return c.snapshot(), nil
}

func (c *Coordinator) fireLocked(ctx context.Context, a *attempt, event Event) error {
	if err := a.sm.Fire(ctx, event, nil); err != nil {
		if statemachine.IsNotPermitted(err) {
			return errors.Join(ErrInvalidState, err)
		}
		return err
	}
	return nil
}

// stateError reports event as not allowed, naming the events that are.
func (c *Coordinator) stateError(event Event) error {
	if c.current == nil {
		return fmt.Errorf("%w: %s not allowed without an attempt", ErrInvalidState, event)
	}
	allowed := c.current.sm.Events()
	slices.Sort(allowed)
	return fmt.Errorf("%w: %s not allowed in %s (allowed: %v)",
		ErrInvalidState, event, c.current.sm.Current(), allowed)
}

// snapshot must be called with c.mu held.
func (c *Coordinator) snapshot() Attempt {
	if c.current == nil {
		return Attempt{Status: StatusIdle}
	}
	snap := c.current.Attempt
	snap.Status = c.current.sm.Current()
	return snap
}

func (c *Coordinator) transitionLogger(id uuid.UUID) statemachine.Listener[Status, Event] {
	return func(ctx context.Context, from, to Status, event Event) {
		c.log.DebugContext(ctx, "upgrade state changed",
			logger.AttemptID(id),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
			logger.Event(event.String()),
		)
	}
}
