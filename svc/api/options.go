package api

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/vipgate/pkg/entitlement"
)

// Option configures the router.
type Option func(*API)

func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.log = l
		}
	}
}

// WithRoutes overrides the redirect targets used by access checks and the
// guarded mounts.
func WithRoutes(r entitlement.Routes) Option {
	return func(a *API) { a.routes = r }
}

// WithVIPHandler mounts h under /vip for VIP and Admin sessions.
func WithVIPHandler(h http.Handler) Option {
	return func(a *API) { a.vip = h }
}

// WithAdminHandler mounts h under /admin for Admin sessions.
func WithAdminHandler(h http.Handler) Option {
	return func(a *API) { a.admin = h }
}

// WithMount adds an unguarded handler at pattern, e.g. health probes or /metrics.
func WithMount(pattern string, h http.Handler) Option {
	return func(a *API) {
		a.mounts = append(a.mounts, mount{pattern: pattern, h: h})
	}
}

// WithPublishableKey is returned with the plan listing for clients that
// tokenize cards with provider-hosted fields.
func WithPublishableKey(key string) Option {
	return func(a *API) { a.publishableKey = key }
}
