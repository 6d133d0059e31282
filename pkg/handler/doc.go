// Package handler turns typed request handlers into http.HandlerFunc.
//
// A HandlerFunc receives a Context and a request value already decoded by
// the configured binders and returns a Response. Binding and rendering
// failures go to an ErrorHandler, which by default writes a JSON error body
// whose status comes from HTTPError, binder.ValidationError or a custom
// ErrorMapper.
//
//	type loginRequest struct {
//		Email    string `json:"email" validate:"required,email"`
//		Password string `json:"password" validate:"required"`
//	}
//
//	login := func(ctx handler.Context, req loginRequest) handler.Response {
//		sess, err := ctrl.Login(ctx, req.Email, req.Password)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(sess)
//	}
//
//	r.Post("/login", handler.Wrap(login, handler.WithBinders[loginRequest](binder.JSON())))
package handler
