// Package entitlement decides whether a session may reach a feature that
// requires a capability, and adapts that decision to net/http.
//
// Decide is a pure function over (session, capability):
//
//	d := entitlement.Decide(sess, entitlement.VIP)
//	if !d.Allow {
//	    // navigate to d.RedirectTo, remembering the current path when d.PreserveReturnPath
//	}
//
// Require turns the decision into chi-compatible middleware:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(entitlement.Require(entitlement.VIP, entitlement.SessionFromContext))
//	    r.Get("/quotes", quotesHandler)
//	})
package entitlement
