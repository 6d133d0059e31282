package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/dmitrymomot/vipgate/pkg/logger"
)

// StripeGateway implements Gateway on the Stripe API.
type StripeGateway struct {
	api            *client.API
	publishableKey string
	log            *slog.Logger
}

// StripeOption configures a StripeGateway.
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	httpClient *http.Client
	log        *slog.Logger
}

// WithHTTPClient sets the client used for API calls.
func WithHTTPClient(c *http.Client) StripeOption {
	return func(o *stripeOptions) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithLogger routes gateway and SDK logs to l.
func WithLogger(l *slog.Logger) StripeOption {
	return func(o *stripeOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// NewStripeGateway builds a gateway with its own API client; the global
// stripe.Key is never touched.
func NewStripeGateway(cfg StripeConfig, opts ...StripeOption) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecretKey
	}

	o := &stripeOptions{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	log := o.log.With(logger.Component("payment.stripe"))

	bc := &stripe.BackendConfig{
		HTTPClient:        o.httpClient,
		LeveledLogger:     &stripeLogger{log: log},
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
	}
	if cfg.APIURL != "" {
		bc.URL = stripe.String(cfg.APIURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, bc)

	return &StripeGateway{
		api:            client.New(cfg.SecretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend}),
		publishableKey: cfg.PublishableKey,
		log:            log,
	}, nil
}

// PublishableKey is the client-side key for provider-hosted card fields.
func (g *StripeGateway) PublishableKey() string {
	return g.publishableKey
}

func (g *StripeGateway) CreatePaymentMethod(ctx context.Context, card CardDetails) (string, error) {
	card = card.Normalize()
	if err := card.Validate(); err != nil {
		return "", err
	}

	params := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(int64(card.ExpMonth)),
			ExpYear:  stripe.Int64(int64(card.ExpYear)),
			CVC:      stripe.String(card.CVC),
		},
	}
	if card.HolderName != "" || card.PostalCode != "" {
		params.BillingDetails = &stripe.PaymentMethodBillingDetailsParams{}
		if card.HolderName != "" {
			params.BillingDetails.Name = stripe.String(card.HolderName)
		}
		if card.PostalCode != "" {
			params.BillingDetails.Address = &stripe.AddressParams{PostalCode: stripe.String(card.PostalCode)}
		}
	}
	params.Context = ctx

	pm, err := g.api.PaymentMethods.New(params)
	if err != nil {
		err = mapStripeError(err)
		// any card rejection at tokenization time is an input problem
		if errors.Is(err, ErrCardDeclined) {
			err = errors.Join(ErrInvalidCard, err)
		}
		g.log.WarnContext(ctx, "failed to create payment method", "card", card, logger.Error(err))
		return "", err
	}
	return pm.ID, nil
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*Receipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	price, err := g.LookupPrice(ctx, req.PriceRef)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(price.Amount),
		Currency:           stripe.String(price.Currency),
		PaymentMethod:      stripe.String(req.PaymentMethodRef),
		PaymentMethodTypes: stripe.StringSlice([]string{string(stripe.PaymentMethodTypeCard)}),
		Confirm:            stripe.Bool(true),
	}
	params.AddMetadata("account_id", req.AccountID.String())
	params.AddMetadata("price_ref", req.PriceRef)
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return &Receipt{
			TransactionID: pi.ID,
			PriceRef:      req.PriceRef,
			Amount:        pi.Amount,
			Currency:      string(pi.Currency),
			CreatedAt:     time.Unix(pi.Created, 0).UTC(),
		}, nil
	case stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusCanceled:
		return nil, errors.Join(ErrCardDeclined, fmt.Errorf("payment intent %s: %s", pi.ID, pi.Status))
	default:
		// outcome unknown to us; surfaced like a lost response so nobody retries blindly
		return nil, errors.Join(ErrNetwork, fmt.Errorf("payment intent %s: %s", pi.ID, pi.Status))
	}
}

// LookupPrice fetches the price from Stripe. Archived prices and prices
// without a unit amount are rejected, since a one-off PaymentIntent needs a
// fixed amount.
func (g *StripeGateway) LookupPrice(ctx context.Context, priceRef string) (Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	price, err := g.api.Prices.Get(priceRef, params)
	if err != nil {
		return Price{}, mapStripeError(err)
	}
	if !price.Active || price.UnitAmount <= 0 {
		return Price{}, errors.Join(ErrInvalidRequest, fmt.Errorf("price %s is not chargeable", priceRef))
	}

	p := Price{Amount: price.UnitAmount, Currency: string(price.Currency)}
	if price.Recurring != nil {
		p.Interval = string(price.Recurring.Interval)
	}
	return p, nil
}

// mapStripeError translates SDK errors into the package taxonomy.
func mapStripeError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		// transport failure, timeout or cancellation
		return errors.Join(ErrNetwork, err)
	}

	switch {
	case se.Type == stripe.ErrorTypeCard:
		switch se.Code {
		case stripe.ErrorCodeIncorrectNumber, stripe.ErrorCodeInvalidNumber,
			stripe.ErrorCodeInvalidExpiryMonth, stripe.ErrorCodeInvalidExpiryYear,
			stripe.ErrorCodeInvalidCVC, stripe.ErrorCodeIncorrectCVC,
			stripe.ErrorCodeExpiredCard:
			return errors.Join(ErrInvalidCard, ErrCardDeclined, err)
		}
		return errors.Join(ErrCardDeclined, err)
	case se.HTTPStatusCode == http.StatusTooManyRequests, se.HTTPStatusCode >= 500, se.Type == stripe.ErrorTypeAPI:
		return errors.Join(ErrNetwork, err)
	default:
		return errors.Join(ErrInvalidRequest, err)
	}
}

// stripeLogger adapts slog to stripe.LeveledLoggerInterface.
type stripeLogger struct {
	log *slog.Logger
}

func (l *stripeLogger) Debugf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l *stripeLogger) Infof(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l *stripeLogger) Warnf(format string, v ...any) {
	l.log.Warn(fmt.Sprintf(format, v...))
}

func (l *stripeLogger) Errorf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...))
}
