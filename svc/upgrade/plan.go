package upgrade

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Plan is a purchasable upgrade with its canonical provider price and the
// details a plan picker shows.
type Plan struct {
	ID          string `json:"id"`
	PriceRef    string `json:"priceRef"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Popular     bool   `json:"popular"`

	// Pricing is resolved through the payment gateway by Coordinator.Plans
	// and is zero in catalogue lookups.
	Amount   int64  `json:"amount,omitempty"` // minor units
	Currency string `json:"currency,omitempty"`
	Period   string `json:"period,omitempty"`
	// Savings is what a yearly plan saves over twelve months of the monthly
	// plan in the same currency.
	Savings int64 `json:"savings,omitempty"`
}

// PlanDetails is the display metadata of a plan.
type PlanDetails struct {
	Name        string
	Description string
	Popular     bool
}

// CatalogOption configures a Catalog.
type CatalogOption func(map[string]PlanDetails)

// WithPlanDetails attaches display metadata to plan id.
func WithPlanDetails(id string, d PlanDetails) CatalogOption {
	return func(m map[string]PlanDetails) {
		m[strings.TrimSpace(id)] = d
	}
}

// Catalog holds the known plans. It is immutable after construction.
type Catalog struct {
	plans map[string]Plan
}

// NewCatalog builds a catalogue from plan id to price reference. Plans
// without details are named after their id. Details for an unknown plan
// fail with ErrInvalidCatalog.
func NewCatalog(prices map[string]string, opts ...CatalogOption) (*Catalog, error) {
	details := make(map[string]PlanDetails)
	for _, opt := range opts {
		opt(details)
	}

	c := &Catalog{plans: make(map[string]Plan, len(prices))}
	for id, ref := range prices {
		id, ref = strings.TrimSpace(id), strings.TrimSpace(ref)
		if id == "" || ref == "" {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("plan %q has empty id or price", id))
		}
		p := Plan{ID: id, PriceRef: ref, Name: id}
		if d, ok := details[id]; ok {
			if d.Name != "" {
				p.Name = d.Name
			}
			p.Description = d.Description
			p.Popular = d.Popular
		}
		c.plans[id] = p
	}
	for id := range details {
		if _, ok := c.plans[id]; !ok {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("details for unknown plan %q", id))
		}
	}
	return c, nil
}

// Plan looks a plan up by id.
func (c *Catalog) Plan(id string) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return p, nil
}

// Plans lists all plans ordered by id.
func (c *Catalog) Plans() []Plan {
	ids := slices.Sorted(maps.Keys(c.plans))
	out := make([]Plan, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.plans[id])
	}
	return out
}

// Plans lists the purchasable plans priced through the payment gateway.
// A price that cannot be resolved fails the whole listing, so a picker never
// shows a plan that cannot be charged.
func (c *Coordinator) Plans(ctx context.Context) ([]Plan, error) {
	plans := c.catalog.Plans()
	for i := range plans {
		price, err := c.gateway.LookupPrice(ctx, plans[i].PriceRef)
		if err != nil {
			return nil, fmt.Errorf("price plan %s: %w", plans[i].ID, err)
		}
		plans[i].Amount = price.Amount
		plans[i].Currency = price.Currency
		plans[i].Period = price.Interval
	}

	monthly := make(map[string]int64)
	for _, p := range plans {
		if p.Period == "month" {
			if cur, ok := monthly[p.Currency]; !ok || p.Amount < cur {
				monthly[p.Currency] = p.Amount
			}
		}
	}
	for i, p := range plans {
		m, ok := monthly[p.Currency]
		if p.Period == "year" && ok && 12*m > p.Amount {
			plans[i].Savings = 12*m - p.Amount
		}
	}
	return plans, nil
}
