package auth

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithDirectoryTimeout bounds each directory call.
func WithDirectoryTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.dirTimeout = d
		}
	}
}

// WithLoginRateLimit throttles Login. Attempts over the limit fail with
// ErrTooManyAttempts without reaching the directory.
func WithLoginRateLimit(perSecond float64, burst int) Option {
	return func(c *Controller) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithConfig applies cfg.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		WithDirectoryTimeout(cfg.DirectoryTimeout)(c)
		WithLoginRateLimit(cfg.LoginRate, cfg.LoginBurst)(c)
	}
}

// withClock is used by tests to control issue timestamps.
func withClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}
