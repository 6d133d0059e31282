package payment

import "errors"

var (
	ErrInvalidCard    = errors.New("payment.invalid_card")
	ErrCardDeclined   = errors.New("payment.card_declined")
	ErrNetwork        = errors.New("payment.network_error")
	ErrInvalidRequest = errors.New("payment.invalid_request")

	ErrMissingSecretKey = errors.New("payment.missing_secret_key")
)
