// Package api exposes the session controller, the entitlement guard and the
// upgrade coordinator as a JSON API for a single local user.
//
// Routes:
//
//	POST   /api/auth/login                  {email, password, returnTo}
//	POST   /api/auth/logout
//	POST   /api/auth/refresh
//	GET    /api/auth/session
//	GET    /api/access/{capability}
//	GET    /api/upgrade/plans               priced plans and publishable key
//	GET    /api/upgrade
//	DELETE /api/upgrade
//	POST   /api/upgrade/plan                {planId, priceRef}
//	POST   /api/upgrade/card
//	POST   /api/upgrade/back
//	POST   /api/upgrade/payment-method      card details
//	POST   /api/upgrade/submit              {paymentMethodRef}
//	POST   /api/upgrade/retry
//	POST   /api/upgrade/entitlement-sync
//
// Features mounted with WithVIPHandler and WithAdminHandler are served under
// /vip and /admin behind entitlement.Require, so a denied request is
// redirected the same way a UI would navigate.
//
// Upgrade endpoints always return the attempt snapshot under "data", also
// when they fail.
package api
