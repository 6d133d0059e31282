package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/vipgate/pkg/account"
	"github.com/dmitrymomot/vipgate/pkg/binder"
	"github.com/dmitrymomot/vipgate/pkg/entitlement"
	"github.com/dmitrymomot/vipgate/pkg/handler"
	"github.com/dmitrymomot/vipgate/pkg/logger"
	"github.com/dmitrymomot/vipgate/pkg/payment"
	"github.com/dmitrymomot/vipgate/pkg/requestid"
	"github.com/dmitrymomot/vipgate/pkg/session"
	"github.com/dmitrymomot/vipgate/svc/auth"
	"github.com/dmitrymomot/vipgate/svc/upgrade"
)

// API serves the JSON endpoints.
type API struct {
	auth    *auth.Controller
	upgrade *upgrade.Coordinator
	store   session.Store
	log     *slog.Logger
	routes  entitlement.Routes
	vip     http.Handler
	admin   http.Handler
	mounts  []mount

	publishableKey string

	bind   handler.Bind
	errors handler.ErrorHandler
}

type mount struct {
	pattern string
	h       http.Handler
}

// NewRouter builds the router. It panics when a dependency is nil.
func NewRouter(ctrl *auth.Controller, coord *upgrade.Coordinator, store session.Store, opts ...Option) http.Handler {
	if ctrl == nil || coord == nil || store == nil {
		panic("api: controller, coordinator and store are required")
	}

	a := &API{
		auth:    ctrl,
		upgrade: coord,
		store:   store,
		log:     logger.Discard(),
		routes:  entitlement.DefaultRoutes,
		bind:    binder.JSON(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With(logger.Component("api"))
	a.errors = handler.NewErrorHandler(a.log, mapError)

	return a.router()
}

func (a *API) router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		middleware.Recoverer,
		entitlement.LoadSession(a.store),
	)

	for _, m := range a.mounts {
		r.Handle(m.pattern, m.h)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", route[loginRequest](a, a.login))
			r.Post("/logout", route[struct{}](a, a.logout))
			r.Post("/refresh", route[struct{}](a, a.refresh))
			r.Get("/session", route[struct{}](a, a.currentSession))
		})

		r.Get("/access/{capability}", route[struct{}](a, a.access))

		r.Route("/upgrade", func(r chi.Router) {
			r.Get("/", route[struct{}](a, a.status))
			r.Delete("/", route[struct{}](a, a.closeAttempt))
			r.Get("/plans", route[struct{}](a, a.plans))
			r.Post("/plan", route[selectPlanRequest](a, a.selectPlan))
			r.Post("/card", route[struct{}](a, a.provideCard))
			r.Post("/back", route[struct{}](a, a.back))
			r.Post("/payment-method", route[payment.CardDetails](a, a.tokenize))
			r.Post("/submit", route[submitRequest](a, a.submit))
			r.Post("/retry", route[struct{}](a, a.retry))
			r.Post("/entitlement-sync", route[struct{}](a, a.retryEntitlementSync))
		})
	})

	guarded := func(c entitlement.Capability, pattern string, h http.Handler) {
		if h == nil {
			return
		}
		r.Group(func(r chi.Router) {
			r.Use(entitlement.Require(c, entitlement.SessionFromContext, entitlement.WithRoutes(a.routes)))
			r.Mount(pattern, h)
		})
	}
	guarded(entitlement.VIP, "/vip", a.vip)
	guarded(entitlement.Admin, "/admin", a.admin)
	return r
}

func route[R any](a *API, h handler.HandlerFunc[R]) http.HandlerFunc {
	return handler.Wrap[R](h,
		handler.WithBinders[R](a.bind),
		handler.WithErrorHandler[R](a.errors),
	)
}

// fail renders err with data attached and logs it at warn for client errors
// and error otherwise.
func (a *API) fail(ctx handler.Context, err error, data any) handler.Response {
	if he, ok := mapError(err); ok {
		err = he
	}
	status, _ := handler.Classify(err)

	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	r := ctx.Request()
	a.log.LogAttrs(ctx, level, "request failed",
		logger.Error(err),
		slog.Int("status", status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	opts := []handler.JSONOption{}
	if data != nil {
		opts = append(opts, handler.WithData(data))
	}
	if id := requestid.FromContext(ctx); id != "" {
		opts = append(opts, handler.WithMeta(map[string]any{"requestId": id}))
	}
	return handler.JSONError(err, opts...)
}

// SessionView is the JSON form of a session.
type SessionView struct {
	AccountID uuid.UUID    `json:"accountId"`
	Role      account.Role `json:"role"`
	IssuedAt  time.Time    `json:"issuedAt"`
}

func viewOf(s *session.Session) SessionView {
	return SessionView{AccountID: s.AccountID, Role: s.Role, IssuedAt: s.IssuedAt}
}
