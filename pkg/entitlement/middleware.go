package entitlement

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrymomot/vipgate/pkg/session"
)

// DefaultReturnParam is the query parameter carrying the original path on a login redirect.
const DefaultReturnParam = "return_to"

// SessionFunc resolves the session of a request. Nil means unauthenticated.
type SessionFunc func(r *http.Request) *session.Session

// SessionFromContext reads the session placed in the request context by LoadSession.
func SessionFromContext(r *http.Request) *session.Session {
	s, _ := session.FromContext(r.Context())
	return s
}

// LoadSession loads the current session from store into the request context.
// A missing or unreadable session leaves the request unauthenticated.
func LoadSession(store session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, err := store.Load(r.Context()); err == nil {
				r = r.WithContext(session.WithSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Option configures Require and Wrap.
type Option func(*options)

type options struct {
	routes      Routes
	returnParam string
}

// WithRoutes overrides the redirect targets.
func WithRoutes(r Routes) Option {
	return func(o *options) {
		o.routes = r
	}
}

// WithReturnParam overrides the query parameter used to preserve the return path.
func WithReturnParam(name string) Option {
	return func(o *options) {
		if name != "" {
			o.returnParam = name
		}
	}
}

// Require returns middleware that lets a request through only when its
// session satisfies c, and otherwise responds with 303 See Other.
func Require(c Capability, sessions SessionFunc, opts ...Option) func(http.Handler) http.Handler {
	o := &options{routes: DefaultRoutes, returnParam: DefaultReturnParam}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := o.routes.Decide(sessions(r), c)
			if d.Allow {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, redirectURL(d, r, o.returnParam), http.StatusSeeOther)
		})
	}
}

// Wrap guards a single handler.
func Wrap(c Capability, sessions SessionFunc, h http.Handler, opts ...Option) http.Handler {
	return Require(c, sessions, opts...)(h)
}

func redirectURL(d Decision, r *http.Request, param string) string {
	if !d.PreserveReturnPath {
		return d.RedirectTo
	}

	target, err := url.Parse(d.RedirectTo)
	if err != nil {
		return d.RedirectTo
	}
	q := target.Query()
	q.Set(param, r.URL.RequestURI())
	target.RawQuery = q.Encode()
	return target.String()
}

// SafeReturnPath returns raw when it is a local absolute path, fallback otherwise.
// Login handlers use it before redirecting to a preserved return path.
func SafeReturnPath(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return raw
}
