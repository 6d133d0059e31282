package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Well-known test card numbers understood by MemoryGateway, mirroring the
// Stripe test cards.
const (
	TestCardSuccess  = "4242424242424242"
	TestCardDeclined = "4000000000000002"
)

// chargeResult is a settled charge remembered for idempotent replay.
type chargeResult struct {
	req     ChargeRequest
	receipt *Receipt
	err     error
}

func (r chargeResult) replay(req ChargeRequest) (*Receipt, error) {
	if r.req.PriceRef != req.PriceRef || r.req.PaymentMethodRef != req.PaymentMethodRef || r.req.AccountID != req.AccountID {
		return nil, errors.Join(ErrInvalidRequest,
			fmt.Errorf("idempotency key %s was used with different parameters", req.IdempotencyKey))
	}
	if r.err != nil {
		return nil, r.err
	}
	cp := *r.receipt
	return &cp, nil
}

// ChargeHook runs at the start of every MemoryGateway.Charge call. A non-nil
// error is returned as the charge result. Hooks may block on ctx to simulate a
// slow provider.
type ChargeHook func(ctx context.Context, req ChargeRequest) error

// MemoryGateway is an in-memory Gateway with Stripe-like test card behaviour,
// scripted failures and call counters.
type MemoryGateway struct {
	mu       sync.Mutex
	prices   map[string]Price
	methods  map[string]CardDetails
	results  map[string]chargeResult // by idempotency key
	failures []error
	hook     ChargeHook

	pmCalls     int
	chargeCalls int
	charges     []ChargeRequest
	requests    []ChargeRequest
	seq         int
}

// MemoryOption configures a MemoryGateway.
type MemoryOption func(*MemoryGateway)

// WithPrice registers a chargeable price.
func WithPrice(ref string, p Price) MemoryOption {
	return func(g *MemoryGateway) {
		g.prices[ref] = p
	}
}

// WithChargeHook installs a hook run at the start of each charge.
func WithChargeHook(h ChargeHook) MemoryOption {
	return func(g *MemoryGateway) {
		g.hook = h
	}
}

func NewMemoryGateway(opts ...MemoryOption) *MemoryGateway {
	g := &MemoryGateway{
		prices:  make(map[string]Price),
		methods: make(map[string]CardDetails),
		results: make(map[string]chargeResult),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FailNextCharge queues err as the outcome of the next charge.
func (g *MemoryGateway) FailNextCharge(err error) {
	g.mu.Lock()
	g.failures = append(g.failures, err)
	g.mu.Unlock()
}

func (g *MemoryGateway) CreatePaymentMethod(ctx context.Context, card CardDetails) (string, error) {
	card = card.Normalize()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.pmCalls++

	if err := ctx.Err(); err != nil {
		return "", errors.Join(ErrNetwork, err)
	}
	if err := card.Validate(); err != nil {
		return "", err
	}

	g.seq++
	ref := fmt.Sprintf("pm_mem_%d", g.seq)
	g.methods[ref] = card
	return ref, nil
}

// Charge behaves like a provider with idempotency keys: a key replays its
// first settled result, declines included, and a reused key with different
// parameters fails with ErrInvalidRequest. Network failures never settle.
func (g *MemoryGateway) Charge(ctx context.Context, req ChargeRequest) (*Receipt, error) {
	g.mu.Lock()
	g.chargeCalls++
	g.requests = append(g.requests, req)
	hook := g.hook
	g.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, req); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrNetwork, err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if req.IdempotencyKey != "" {
		if r, ok := g.results[req.IdempotencyKey]; ok {
			return r.replay(req)
		}
	}

	receipt, err := g.settle(req)
	if req.IdempotencyKey != "" && !errors.Is(err, ErrNetwork) {
		g.results[req.IdempotencyKey] = chargeResult{req: req, receipt: receipt, err: err}
	}
	if err != nil {
		return nil, err
	}
	cp := *receipt
	return &cp, nil
}

// settle decides the outcome of a new charge. Must be called with g.mu held.
func (g *MemoryGateway) settle(req ChargeRequest) (*Receipt, error) {
	if len(g.failures) > 0 {
		err := g.failures[0]
		g.failures = g.failures[1:]
		return nil, err
	}

	price, ok := g.prices[req.PriceRef]
	if !ok {
		return nil, errors.Join(ErrInvalidRequest, fmt.Errorf("no such price: %s", req.PriceRef))
	}
	card, ok := g.methods[req.PaymentMethodRef]
	if !ok {
		return nil, errors.Join(ErrInvalidRequest, fmt.Errorf("no such payment method: %s", req.PaymentMethodRef))
	}
	if card.Number == TestCardDeclined {
		return nil, errors.Join(ErrCardDeclined, errors.New("your card was declined"))
	}

	g.seq++
	r := &Receipt{
		TransactionID: fmt.Sprintf("pi_mem_%d", g.seq),
		PriceRef:      req.PriceRef,
		Amount:        price.Amount,
		Currency:      price.Currency,
		CreatedAt:     time.Now().UTC(),
	}
	g.charges = append(g.charges, req)
	return r, nil
}

func (g *MemoryGateway) LookupPrice(ctx context.Context, priceRef string) (Price, error) {
	if err := ctx.Err(); err != nil {
		return Price{}, errors.Join(ErrNetwork, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.prices[priceRef]
	if !ok {
		return Price{}, errors.Join(ErrInvalidRequest, fmt.Errorf("no such price: %s", priceRef))
	}
	return p, nil
}

// ChargeCalls counts Charge invocations, including failed ones.
func (g *MemoryGateway) ChargeCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.chargeCalls
}

// PaymentMethodCalls counts CreatePaymentMethod invocations.
func (g *MemoryGateway) PaymentMethodCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pmCalls
}

// Charges returns the requests that resulted in money moving.
func (g *MemoryGateway) Charges() []ChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ChargeRequest(nil), g.charges...)
}

// ChargeRequests returns every request passed to Charge, in call order.
func (g *MemoryGateway) ChargeRequests() []ChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ChargeRequest(nil), g.requests...)
}
