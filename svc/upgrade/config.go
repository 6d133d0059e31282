package upgrade

import "time"

// Config is the env-driven coordinator configuration.
type Config struct {
	// PlanPrices maps plan ids to canonical price references,
	// e.g. "monthly_vip:price_123,annual_vip:price_456".
	PlanPrices map[string]string `env:"UPGRADE_PLAN_PRICES" envSeparator:"," envKeyValSeparator:":"`

	// PlanNames and PlanDescriptions are shown in the plan listing. Descriptions
	// are separated by ";" so they may contain commas.
	PlanNames        map[string]string `env:"UPGRADE_PLAN_NAMES" envSeparator:"," envKeyValSeparator:":"`
	PlanDescriptions map[string]string `env:"UPGRADE_PLAN_DESCRIPTIONS" envSeparator:";" envKeyValSeparator:":"`
	// PopularPlan is highlighted in the plan listing.
	PopularPlan string `env:"UPGRADE_POPULAR_PLAN"`

	// ChargeTimeout bounds a single charge. Expiry fails the attempt with NetworkError.
	ChargeTimeout time.Duration `env:"UPGRADE_CHARGE_TIMEOUT" envDefault:"15s"`
}

// CatalogOptions turns the display settings into catalogue options.
func (c Config) CatalogOptions() []CatalogOption {
	details := make(map[string]PlanDetails)
	for id, name := range c.PlanNames {
		d := details[id]
		d.Name = name
		details[id] = d
	}
	for id, desc := range c.PlanDescriptions {
		d := details[id]
		d.Description = desc
		details[id] = d
	}
	if c.PopularPlan != "" {
		d := details[c.PopularPlan]
		d.Popular = true
		details[c.PopularPlan] = d
	}

	opts := make([]CatalogOption, 0, len(details))
	for id, d := range details {
		opts = append(opts, WithPlanDetails(id, d))
	}
	return opts
}
