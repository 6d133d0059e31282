// Package async provides a generic Future for running blocking operations
// without blocking the caller.
//
// Network-bound operations elsewhere in the module (login, session refresh)
// are plain blocking calls taking a context. Their *Async variants wrap them
// with Go so UI code can start the call and collect the result later:
//
//	f := async.Go(ctx, func(ctx context.Context) (*session.Session, error) {
//	    return ctrl.Login(ctx, email, password)
//	})
//	// ...
//	sess, err := f.Await()
package async
