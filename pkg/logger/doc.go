// Package logger builds *slog.Logger instances with functional options and
// provides attribute helpers so every package logs accounts, plans and
// upgrade attempts under the same keys.
//
//	log := logger.New(logger.FromConfig(cfg))
//	log.InfoContext(ctx, "upgrade succeeded",
//	    logger.AccountID(sess.AccountID),
//	    logger.PlanID("monthly_vip"),
//	)
//
// Context extractors add request-scoped attributes to every record:
//
//	log := logger.New(logger.WithContextExtractors(session.LogExtractor))
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
