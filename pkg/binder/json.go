package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxBodySize caps JSON request bodies.
const DefaultMaxBodySize = 1 << 20

// Option configures JSON.
type Option func(*options)

type options struct {
	maxBytes int64
	validate bool
}

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// WithoutValidation skips struct tag validation after decoding.
func WithoutValidation() Option {
	return func(o *options) {
		o.validate = false
	}
}

// JSON returns a binder that decodes an application/json body into v and validates it.
// An empty body decodes to the zero value, so requests without payload pass
// as long as v has no required fields.
func JSON(opts ...Option) func(r *http.Request, v any) error {
	o := &options{maxBytes: DefaultMaxBodySize, validate: true}
	for _, opt := range opts {
		opt(o)
	}

	return func(r *http.Request, v any) error {
		if r.Body != nil && r.ContentLength != 0 {
			if err := decode(r, v, o.maxBytes); err != nil {
				return err
			}
		}
		if o.validate {
			return Validate(v)
		}
		return nil
	}
}

func decode(r *http.Request, v any, maxBytes int64) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, ct)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}
	if int64(len(body)) > maxBytes {
		return fmt.Errorf("%w: max %d bytes", ErrBodyTooLarge, maxBytes)
	}
	if len(body) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
	}
	return nil
}
