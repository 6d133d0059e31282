package auth

import "time"

// Config is the env-driven controller configuration.
type Config struct {
	// DirectoryTimeout bounds each call to the account directory. Zero disables the bound.
	DirectoryTimeout time.Duration `env:"AUTH_DIRECTORY_TIMEOUT" envDefault:"10s"`

	// LoginRate is the sustained number of login attempts per second. Zero disables throttling.
	LoginRate  float64 `env:"AUTH_LOGIN_RATE" envDefault:"0"`
	LoginBurst int     `env:"AUTH_LOGIN_BURST" envDefault:"5"`
}
