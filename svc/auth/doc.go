// Package auth owns the authenticated session: login, logout, refresh and
// the role promotion that follows a successful upgrade. The Controller is the
// only writer of the session store; everything else reads it.
//
// Writes are applied strictly in the order they were issued, including the
// *Async variants, so a Refresh issued after a Login observes the logged-in
// session and never interleaves with a concurrent Logout.
//
//	ctrl := auth.NewController(directory, store, auth.WithLogger(log))
//	sess, err := ctrl.Login(ctx, email, password)
//	switch {
//	case errors.Is(err, auth.ErrInvalidCredentials):
//	case errors.Is(err, auth.ErrNetwork):
//	}
//
// A payment in flight holds off logout:
//
//	release := ctrl.HoldLogout()
//	defer release() // a Logout issued meanwhile runs here
package auth
