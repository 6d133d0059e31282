package upgrade

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithChargeTimeout bounds each charge call.
func WithChargeTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.chargeTimeout = d
		}
	}
}

// WithRegisterer registers the coordinator metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Coordinator) {
		c.registerer = reg
	}
}
