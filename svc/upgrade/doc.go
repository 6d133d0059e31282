// Package upgrade drives the Free to VIP purchase flow.
//
// A Coordinator owns at most one attempt at a time. Each attempt walks a
// finite state machine:
//
//	Idle --select--> PlanSelected
//	PlanSelected --provide_card--> AwaitingPaymentMethod
//	AwaitingPaymentMethod --back--> PlanSelected
//	AwaitingPaymentMethod --tokenized--> AwaitingPaymentMethod
//	AwaitingPaymentMethod --submit--> Submitting
//	AwaitingPaymentMethod --price_rejected--> Failed
//	Submitting --charge_succeeded--> Succeeded
//	Submitting --charge_failed--> Failed
//	Failed --retry--> AwaitingPaymentMethod
//
// Submit charges the selected plan through a payment.Gateway with the payment
// method tokenized for the attempt and, on success, promotes the account that
// paid to VIP through the session controller, even if another account signed
// in meanwhile. Each charge carries its own idempotency key, derived from the
// attempt id and the charge number. The charge is bounded by a timeout and
// cannot be cancelled once it has started; duplicate submits while charging
// return the current snapshot without charging again. After a failure, Retry
// discards the payment method and a new card must be tokenized.
//
// If the charge succeeds but the role change does not, the attempt still
// reports Succeeded with EntitlementSynced=false and Submit returns
// ErrEntitlementSyncFailed. RetryEntitlementSync repeats only the role change.
//
// Basic usage:
//
//	catalog, _ := upgrade.NewCatalog(map[string]string{"monthly_vip": "price_123"},
//		upgrade.WithPlanDetails("monthly_vip", upgrade.PlanDetails{Name: "Monthly VIP"}),
//	)
//	coord := upgrade.NewCoordinator(gateway, authController, catalog,
//		upgrade.WithLogger(log),
//		upgrade.WithRegisterer(prometheus.DefaultRegisterer),
//	)
//
//	plans, _ := coord.Plans(ctx)
//	coord.SelectPlan(ctx, plans[0].ID, "")
//	coord.ProvideCard(ctx)
//	coord.Tokenize(ctx, card)
//	attempt, err := coord.Submit(ctx, "")
package upgrade
