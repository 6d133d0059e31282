package upgrade

import (
	"errors"

	"github.com/dmitrymomot/vipgate/pkg/payment"
)

// FailureReason explains why an attempt ended in Failed.
type FailureReason string

const (
	ReasonNone            FailureReason = ""
	ReasonCardDeclined    FailureReason = "CardDeclined"
	ReasonNetworkError    FailureReason = "NetworkError"
	ReasonInvalidRequest  FailureReason = "InvalidRequest"
	ReasonInvalidPriceRef FailureReason = "InvalidPriceRef"
)

// Fatal reports whether the attempt cannot be retried.
func (r FailureReason) Fatal() bool {
	return r == ReasonInvalidPriceRef
}

// PaymentError is a failed charge, optionally wrapping the gateway error.
type PaymentError struct {
	Reason FailureReason
	Err    error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return "upgrade.payment_error: " + string(e.Reason) + ": " + e.Err.Error()
	}
	return "upgrade.payment_error: " + string(e.Reason)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// Is matches the reason sentinels below.
func (e *PaymentError) Is(target error) bool {
	t, ok := target.(*PaymentError)
	return ok && t.Err == nil && t.Reason == e.Reason
}

var (
	ErrCardDeclined    = &PaymentError{Reason: ReasonCardDeclined}
	ErrNetworkError    = &PaymentError{Reason: ReasonNetworkError}
	ErrInvalidRequest  = &PaymentError{Reason: ReasonInvalidRequest}
	ErrInvalidPriceRef = &PaymentError{Reason: ReasonInvalidPriceRef}
)

var (
	ErrInvalidState          = errors.New("upgrade.invalid_state")
	ErrPlanNotFound          = errors.New("upgrade.plan_not_found")
	ErrInvalidCatalog        = errors.New("upgrade.invalid_catalog")
	ErrNotAuthenticated      = errors.New("upgrade.not_authenticated")
	ErrAlreadyEntitled       = errors.New("upgrade.already_entitled")
	ErrPaymentMethodRequired = errors.New("upgrade.payment_method_required")
	ErrEntitlementSyncFailed = errors.New("upgrade.entitlement_sync_failed")
)

// reasonOf maps a gateway charge error onto the failure taxonomy.
// Anything unclassified, including timeouts, counts as a network error.
func reasonOf(err error) FailureReason {
	switch {
	case errors.Is(err, payment.ErrCardDeclined), errors.Is(err, payment.ErrInvalidCard):
		return ReasonCardDeclined
	case errors.Is(err, payment.ErrInvalidRequest):
		return ReasonInvalidRequest
	default:
		return ReasonNetworkError
	}
}
