package api

import (
	"github.com/dmitrymomot/vipgate/pkg/handler"
	"github.com/dmitrymomot/vipgate/pkg/payment"
	"github.com/dmitrymomot/vipgate/svc/upgrade"
)

type selectPlanRequest struct {
	PlanID   string `json:"planId" validate:"required,max=128"`
	PriceRef string `json:"priceRef,omitempty" validate:"omitempty,max=255"`
}

type submitRequest struct {
	PaymentMethodRef string `json:"paymentMethodRef,omitempty" validate:"omitempty,max=255"`
}

func (a *API) attempt(ctx handler.Context, at upgrade.Attempt, err error) handler.Response {
	if err != nil {
		return a.fail(ctx, err, at)
	}
	return handler.JSON(at)
}

// PlansResponse lists the plans with the key for provider-hosted card fields.
type PlansResponse struct {
	Plans          []upgrade.Plan `json:"plans"`
	PublishableKey string         `json:"publishableKey,omitempty"`
}

func (a *API) plans(ctx handler.Context, _ struct{}) handler.Response {
	plans, err := a.upgrade.Plans(ctx)
	if err != nil {
		return a.fail(ctx, err, nil)
	}
	return handler.JSON(PlansResponse{Plans: plans, PublishableKey: a.publishableKey})
}

func (a *API) status(_ handler.Context, _ struct{}) handler.Response {
	return handler.JSON(a.upgrade.Status())
}

func (a *API) closeAttempt(ctx handler.Context, _ struct{}) handler.Response {
	if err := a.upgrade.Close(ctx); err != nil {
		return a.fail(ctx, err, a.upgrade.Status())
	}
	return handler.Empty()
}

func (a *API) selectPlan(ctx handler.Context, req selectPlanRequest) handler.Response {
	at, err := a.upgrade.SelectPlan(ctx, req.PlanID, req.PriceRef)
	return a.attempt(ctx, at, err)
}

func (a *API) provideCard(ctx handler.Context, _ struct{}) handler.Response {
	at, err := a.upgrade.ProvideCard(ctx)
	return a.attempt(ctx, at, err)
}

func (a *API) back(ctx handler.Context, _ struct{}) handler.Response {
	at, err := a.upgrade.Back(ctx)
	return a.attempt(ctx, at, err)
}

func (a *API) tokenize(ctx handler.Context, card payment.CardDetails) handler.Response {
	at, err := a.upgrade.Tokenize(ctx, card)
	return a.attempt(ctx, at, err)
}

func (a *API) submit(ctx handler.Context, req submitRequest) handler.Response {
	at, err := a.upgrade.Submit(ctx, req.PaymentMethodRef)
	return a.attempt(ctx, at, err)
}

func (a *API) retry(ctx handler.Context, _ struct{}) handler.Response {
	at, err := a.upgrade.Retry(ctx)
	return a.attempt(ctx, at, err)
}

func (a *API) retryEntitlementSync(ctx handler.Context, _ struct{}) handler.Response {
	at, err := a.upgrade.RetryEntitlementSync(ctx)
	return a.attempt(ctx, at, err)
}
