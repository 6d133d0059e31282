// Package config loads typed configuration from the environment.
//
// Struct fields are bound with caarlos0/env tags; .env files are read with
// godotenv. Each package that needs configuration exposes its own Config
// struct (pg.Config, redis.Config, payment.StripeConfig, upgrade.Config ...)
// and the application loads them at startup:
//
//	var stripeCfg payment.StripeConfig
//	if err := config.Load(&stripeCfg); err != nil {
//	    return err
//	}
//
// Tests pass an explicit environment instead of touching the process:
//
//	err := config.Load(&cfg, config.WithEnvironment(map[string]string{
//	    "STRIPE_SECRET_KEY": "sk_test_123",
//	}))
package config
