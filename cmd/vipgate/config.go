package main

import (
	"time"

	"github.com/dmitrymomot/vipgate/pkg/httpserver"
	"github.com/dmitrymomot/vipgate/pkg/logger"
	"github.com/dmitrymomot/vipgate/pkg/payment"
	"github.com/dmitrymomot/vipgate/svc/auth"
	"github.com/dmitrymomot/vipgate/svc/upgrade"
)

// Backend selectors.
const (
	backendMemory   = "memory"
	backendFile     = "file"
	backendRedis    = "redis"
	backendPostgres = "postgres"
	backendStripe   = "stripe"
)

type appConfig struct {
	Logger  logger.Config
	HTTP    httpserver.Config
	Auth    auth.Config
	Upgrade upgrade.Config

	DirectoryBackend string `env:"DIRECTORY_BACKEND" envDefault:"memory"` // memory or postgres
	SessionBackend   string `env:"SESSION_BACKEND" envDefault:"file"`     // memory, file or redis
	SessionDir       string `env:"SESSION_DIR" envDefault:".vipgate"`
	// SessionKey seals persisted sessions when set; base64 or hex, 32 bytes.
	SessionKey     string `env:"SESSION_KEY"`
	PaymentBackend string `env:"PAYMENT_BACKEND" envDefault:"memory"` // memory or stripe

	// SeedAccounts are created at startup when missing, as email:password:role
	// entries separated by ";".
	SeedAccounts []string `env:"SEED_ACCOUNTS" envSeparator:";"`

	HealthTimeout time.Duration `env:"HEALTH_TIMEOUT" envDefault:"3s"`
}

// demoPlans is the catalogue used by the memory gateway when none is configured.
var demoPlans = map[string]string{
	"monthly_vip": "price_monthly_vip",
	"annual_vip":  "price_annual_vip",
}

// demoPrices are what the memory gateway charges for the demo catalogue.
var demoPrices = map[string]payment.Price{
	"price_monthly_vip": {Amount: 999, Currency: "usd", Interval: "month"},
	"price_annual_vip":  {Amount: 9999, Currency: "usd", Interval: "year"},
}

func demoDetails() []upgrade.CatalogOption {
	return []upgrade.CatalogOption{
		upgrade.WithPlanDetails("monthly_vip", upgrade.PlanDetails{
			Name:        "Monthly VIP",
			Description: "Perfect for trying out premium features",
		}),
		upgrade.WithPlanDetails("annual_vip", upgrade.PlanDetails{
			Name:        "Annual VIP",
			Description: "Best value for the long run",
			Popular:     true,
		}),
	}
}
