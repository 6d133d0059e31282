// Package binder decodes HTTP request bodies into typed structs.
//
// JSON decodes strictly (unknown fields and trailing data are rejected) with
// a body size cap, then validates the result against its `validate` struct
// tags using go-playground/validator. Validation failures are returned as a
// ValidationError keyed by the JSON field name.
//
//	type loginRequest struct {
//		Email    string `json:"email" validate:"required,email"`
//		Password string `json:"password" validate:"required"`
//	}
//
//	var req loginRequest
//	if err := binder.JSON()(r, &req); err != nil {
//		// errors.Is(err, binder.ErrInvalidJSON) or errors.As(err, &binder.ValidationError{})
//	}
package binder
