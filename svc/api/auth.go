package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/vipgate/pkg/entitlement"
	"github.com/dmitrymomot/vipgate/pkg/handler"
	"github.com/dmitrymomot/vipgate/svc/auth"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
	ReturnTo string `json:"returnTo,omitempty" validate:"omitempty,max=2048"`
}

// LoginResponse carries the new session and where to navigate next.
type LoginResponse struct {
	Session    SessionView `json:"session"`
	RedirectTo string      `json:"redirectTo"`
}

// LogoutResponse is returned when the logout waits for an in-flight charge.
type LogoutResponse struct {
	Pending bool `json:"pending"`
}

func (a *API) login(ctx handler.Context, req loginRequest) handler.Response {
	s, err := a.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return a.fail(ctx, err, nil)
	}
	return handler.JSON(LoginResponse{
		Session:    viewOf(s),
		RedirectTo: entitlement.SafeReturnPath(req.ReturnTo, a.routes.Home),
	})
}

func (a *API) logout(ctx handler.Context, _ struct{}) handler.Response {
	if err := a.auth.Logout(ctx); err != nil {
		return a.fail(ctx, err, nil)
	}
	if a.auth.LogoutPending() {
		return handler.JSON(LogoutResponse{Pending: true}, handler.WithStatus(http.StatusAccepted))
	}
	return handler.Empty()
}

func (a *API) refresh(ctx handler.Context, _ struct{}) handler.Response {
	s, err := a.auth.Refresh(ctx)
	if err != nil {
		return a.fail(ctx, err, nil)
	}
	return handler.JSON(viewOf(s))
}

func (a *API) currentSession(ctx handler.Context, _ struct{}) handler.Response {
	s, ok := a.auth.CurrentSession(ctx)
	if !ok {
		return a.fail(ctx, auth.ErrUnauthenticated, nil)
	}
	return handler.JSON(viewOf(s))
}

// access reports the entitlement decision for the request's session without
// redirecting, so clients can route on it themselves.
func (a *API) access(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()
	c, err := entitlement.ParseCapability(chi.URLParam(r, "capability"))
	if err != nil {
		return a.fail(ctx, err, nil)
	}
	return handler.JSON(a.routes.Decide(entitlement.SessionFromContext(r), c))
}
