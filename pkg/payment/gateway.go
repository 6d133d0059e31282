package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Gateway is the payment provider as seen by the upgrade flow.
type Gateway interface {
	// CreatePaymentMethod tokenizes card details and returns the provider reference.
	CreatePaymentMethod(ctx context.Context, card CardDetails) (string, error)

	// Charge executes a one-off charge of the price against the payment method.
	Charge(ctx context.Context, req ChargeRequest) (*Receipt, error)

	// LookupPrice resolves a chargeable price. Unknown or inactive prices fail
	// with ErrInvalidRequest.
	LookupPrice(ctx context.Context, priceRef string) (Price, error)
}

// Price is what a price reference charges.
type Price struct {
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
	// Interval is the billing period the price is advertised for, such as
	// "month" or "year". Empty for one-time prices.
	Interval string `json:"interval,omitempty"`
}

// ChargeRequest identifies what to charge and on whose behalf.
type ChargeRequest struct {
	PriceRef         string
	PaymentMethodRef string
	AccountID        uuid.UUID
	// IdempotencyKey makes provider retries of the same charge safe. Each
	// distinct charge needs its own key: the provider replays the first
	// result for a key and rejects a reused key with different parameters.
	IdempotencyKey string
}

// Validate rejects requests missing any reference.
func (r ChargeRequest) Validate() error {
	if r.PriceRef == "" || r.PaymentMethodRef == "" || r.AccountID == uuid.Nil {
		return errors.Join(ErrInvalidRequest, errors.New("price, payment method and account are required"))
	}
	return nil
}

// Receipt is the result of a successful charge.
type Receipt struct {
	TransactionID string
	PriceRef      string
	Amount        int64 // minor units
	Currency      string
	CreatedAt     time.Time
}
