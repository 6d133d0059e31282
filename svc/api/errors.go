package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/vipgate/pkg/entitlement"
	"github.com/dmitrymomot/vipgate/pkg/handler"
	"github.com/dmitrymomot/vipgate/pkg/payment"
	"github.com/dmitrymomot/vipgate/svc/auth"
	"github.com/dmitrymomot/vipgate/svc/upgrade"
)

// mapError translates domain errors into HTTP errors.
func mapError(err error) (handler.HTTPError, bool) {
	he, ok := lookup(err)
	if !ok {
		return handler.HTTPError{}, false
	}
	return he.Wrap(err), true
}

func lookup(err error) (handler.HTTPError, bool) {
	// A sync failure joins the directory error that caused it; it must be
	// reported as a sync failure, not as the directory error.
	if errors.Is(err, upgrade.ErrEntitlementSyncFailed) {
		return handler.NewHTTPError(http.StatusBadGateway, "entitlement_sync_failed"), true
	}

	switch auth.KindOf(err) {
	case auth.KindInvalidCredentials:
		return handler.NewHTTPError(http.StatusUnauthorized, "invalid_credentials"), true
	case auth.KindUnauthenticated:
		return handler.NewHTTPError(http.StatusUnauthorized, "unauthenticated"), true
	case auth.KindTooManyAttempts:
		return handler.NewHTTPError(http.StatusTooManyRequests, "too_many_attempts"), true
	case auth.KindNetwork:
		return handler.NewHTTPError(http.StatusServiceUnavailable, "directory_unavailable"), true
	}

	switch {
	case errors.Is(err, upgrade.ErrInvalidState):
		return handler.NewHTTPError(http.StatusConflict, "invalid_state"), true
	case errors.Is(err, upgrade.ErrAlreadyEntitled):
		return handler.NewHTTPError(http.StatusConflict, "already_entitled"), true
	case errors.Is(err, upgrade.ErrPlanNotFound):
		return handler.NewHTTPError(http.StatusNotFound, "plan_not_found"), true
	case errors.Is(err, upgrade.ErrNotAuthenticated):
		return handler.NewHTTPError(http.StatusUnauthorized, "unauthenticated"), true
	case errors.Is(err, upgrade.ErrPaymentMethodRequired):
		return handler.NewHTTPError(http.StatusUnprocessableEntity, "payment_method_required"), true
	// Tokenization rejects carry both invalid card and declined.
	case errors.Is(err, payment.ErrInvalidCard):
		return handler.NewHTTPError(http.StatusUnprocessableEntity, "invalid_card"), true
	case errors.Is(err, upgrade.ErrCardDeclined), errors.Is(err, payment.ErrCardDeclined):
		return handler.NewHTTPError(http.StatusPaymentRequired, "card_declined"), true
	case errors.Is(err, upgrade.ErrInvalidPriceRef):
		return handler.NewHTTPError(http.StatusUnprocessableEntity, "invalid_price_ref"), true
	case errors.Is(err, upgrade.ErrInvalidRequest), errors.Is(err, payment.ErrInvalidRequest):
		return handler.NewHTTPError(http.StatusUnprocessableEntity, "invalid_request"), true
	case errors.Is(err, upgrade.ErrNetworkError), errors.Is(err, payment.ErrNetwork):
		return handler.NewHTTPError(http.StatusServiceUnavailable, "payment_unavailable"), true
	case errors.Is(err, entitlement.ErrUnknownCapability):
		return handler.NewHTTPError(http.StatusNotFound, "unknown_capability"), true
	}
	return handler.HTTPError{}, false
}
