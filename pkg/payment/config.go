package payment

// StripeConfig configures StripeGateway. Keys are supplied by the environment,
// never committed.
type StripeConfig struct {
	PublishableKey    string `env:"STRIPE_PUBLISHABLE_KEY"`
	SecretKey         string `env:"STRIPE_SECRET_KEY,required"`
	APIURL            string `env:"STRIPE_API_URL"` // empty uses the Stripe default
	MaxNetworkRetries int64  `env:"STRIPE_MAX_NETWORK_RETRIES" envDefault:"0"`
}
