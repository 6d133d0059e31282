// Package payment defines the Gateway contract used to tokenize cards and
// charge a provider-issued price, and provides two implementations:
//
//   - StripeGateway talks to the Stripe API (PaymentMethods, Prices and
//     confirmed PaymentIntents).
//   - MemoryGateway is a deterministic in-process fake for tests and local runs.
//
// Every failure is reported as one of ErrInvalidCard, ErrCardDeclined,
// ErrNetwork or ErrInvalidRequest, joined with the underlying cause, so
// callers branch with errors.Is:
//
//	receipt, err := gw.Charge(ctx, payment.ChargeRequest{...})
//	switch {
//	case errors.Is(err, payment.ErrCardDeclined):
//	case errors.Is(err, payment.ErrNetwork):
//	}
//
// Card numbers never reach logs: CardDetails implements slog.LogValuer and
// only exposes the last four digits.
package payment
