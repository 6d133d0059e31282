package handler

import (
	"errors"
	"log/slog"
	"maps"
	"net/http"

	"github.com/dmitrymomot/vipgate/pkg/binder"
	"github.com/dmitrymomot/vipgate/pkg/logger"
	"github.com/dmitrymomot/vipgate/pkg/requestid"
)

// ErrorMapper translates domain errors to HTTP errors. It returns false for
// errors it does not know.
type ErrorMapper func(err error) (HTTPError, bool)

// Classify resolves the status code and error body for err, consulting
// mappers for errors that are not already an HTTPError. Unknown errors are
// reported as 500 without leaking their message.
func Classify(err error, mappers ...ErrorMapper) (int, *ErrorDetail) {
	var verr binder.ValidationError
	if errors.As(err, &verr) {
		d := &ErrorDetail{Code: "validation_error", Message: "request validation failed"}
		if len(verr) > 0 {
			d.Details = make(map[string][]string, len(verr))
			maps.Copy(d.Details, verr)
		}
		return http.StatusUnprocessableEntity, d
	}

	if he, ok := resolve(err, mappers); ok {
		return he.Code, &ErrorDetail{Code: he.Key, Message: http.StatusText(he.Code)}
	}
	return http.StatusInternalServerError, &ErrorDetail{
		Code:    ErrInternalServerError.Key,
		Message: http.StatusText(http.StatusInternalServerError),
	}
}

func resolve(err error, mappers []ErrorMapper) (HTTPError, bool) {
	var he HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	for _, m := range mappers {
		if he, ok := m(err); ok {
			return he, true
		}
	}

	switch {
	case errors.Is(err, binder.ErrMissingContentType), errors.Is(err, binder.ErrUnsupportedMediaType):
		return ErrUnsupportedMediaType, true
	case errors.Is(err, binder.ErrBodyTooLarge):
		return ErrRequestTooLarge, true
	case errors.Is(err, binder.ErrInvalidJSON):
		return ErrBadRequest, true
	}
	return HTTPError{}, false
}

// NewErrorHandler returns an ErrorHandler rendering JSON errors with the
// request id in meta. Client errors are logged at warn, server errors at error.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler {
	if log == nil {
		log = logger.Discard()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		status, detail := Classify(err, mappers...)

		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request failed",
			logger.Error(err),
			slog.Int("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("http"),
		)

		resp := jsonResponse{status: status, body: JSONResponse{Error: detail}}
		if id := requestid.FromContext(r.Context()); id != "" {
			resp.body.Meta = map[string]any{"requestId": id}
		}
		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
		}
	}
}
