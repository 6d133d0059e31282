package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vipgate/pkg/binder"
	"github.com/dmitrymomot/vipgate/pkg/handler"
	"github.com/dmitrymomot/vipgate/pkg/requestid"
)

type greetRequest struct {
	Name string `json:"name" validate:"required,max=16"`
}

var errBanned = errors.New("banned")

func greet(_ handler.Context, req greetRequest) handler.Response {
	if req.Name == "mallory" {
		return handler.JSONError(handler.ErrForbidden.Wrap(errBanned), handler.WithData(map[string]string{"name": req.Name}))
	}
	return handler.JSON(map[string]string{"greeting": "hello " + req.Name})
}

func do(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, handler.JSONResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out handler.JSONResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestWrap(t *testing.T) {
	t.Parallel()

	h := requestid.Middleware(handler.Wrap[greetRequest](greet, handler.WithBinders[greetRequest](binder.JSON())))

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		rec, out := do(t, h, `{"name":"bob"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, map[string]any{"greeting": "hello bob"}, out.Data)
		assert.Nil(t, out.Error)
	})

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()
		rec, out := do(t, h, `{}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.NotNil(t, out.Error)
		assert.Equal(t, "validation_error", out.Error.Code)
		assert.Equal(t, []string{"is required"}, out.Error.Details["name"])
		assert.Equal(t, rec.Header().Get(requestid.Header), out.Meta["requestId"])
	})

	t.Run("bad json", func(t *testing.T) {
		t.Parallel()
		rec, out := do(t, h, `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", out.Error.Code)
	})

	t.Run("handler error keeps data", func(t *testing.T) {
		t.Parallel()
		rec, out := do(t, h, `{"name":"mallory"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "forbidden", out.Error.Code)
		assert.Equal(t, map[string]any{"name": "mallory"}, out.Data)
	})
}

func TestWrap_NilResponseAndDecorators(t *testing.T) {
	t.Parallel()

	var order []string
	trace := func(name string) handler.Decorator[struct{}] {
		return func(next handler.HandlerFunc[struct{}]) handler.HandlerFunc[struct{}] {
			return func(ctx handler.Context, req struct{}) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}

	var handled error
	h := handler.Wrap[struct{}](
		func(handler.Context, struct{}) handler.Response { return nil },
		handler.WithDecorators[struct{}](trace("outer"), trace("inner")),
		handler.WithErrorHandler[struct{}](func(ctx handler.Context, err error) {
			handled = err
			ctx.ResponseWriter().WriteHeader(http.StatusTeapot)
		}),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.ErrorIs(t, handled, handler.ErrNilResponse)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	errDomain := errors.New("domain")
	mapper := func(err error) (handler.HTTPError, bool) {
		if errors.Is(err, errDomain) {
			return handler.ErrConflict, true
		}
		return handler.HTTPError{}, false
	}

	status, d := handler.Classify(errDomain, mapper)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", d.Code)

	status, d = handler.Classify(errors.New("secret internals"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, d.Message, "secret")

	status, _ = handler.Classify(binder.ErrUnsupportedMediaType)
	assert.Equal(t, http.StatusUnsupportedMediaType, status)

	wrapped := handler.ErrPaymentRequired.Wrap(errDomain)
	assert.ErrorIs(t, wrapped, errDomain)
	assert.Equal(t, "payment_required: domain", wrapped.Error())
}

func TestEmptyAndRedirect(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, handler.Empty().Render(rec, req))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	require.NoError(t, handler.Redirect("/settings", http.StatusSeeOther).Render(rec, req))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/settings", rec.Header().Get("Location"))
}
