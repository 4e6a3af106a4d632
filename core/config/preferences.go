package config

import (
	"errors"
	"time"
)

// DefaultMaxRetryLoops bounds dispatch loop iterations when nothing else is configured.
const DefaultMaxRetryLoops = 1000

var (
	ErrInvalidMaxRetryLoops = errors.New("max retry loops must be positive")
	ErrInvalidMaxRetryTime  = errors.New("max retry time must not be negative")
)

// Preferences tunes the dispatch engine.
type Preferences struct {
	// MaxRetryLoops bounds iterations of a serving dispatch loop.
	MaxRetryLoops int `env:"RELAY_MAX_RETRY_LOOPS" envDefault:"1000"`
	// ClientMaxRetryLoops bounds iterations of an outbound call loop.
	ClientMaxRetryLoops int `env:"RELAY_CLIENT_MAX_RETRY_LOOPS" envDefault:"1000"`
	// MaxRetryTime bounds the time a loop may keep retrying. Zero disables the budget.
	MaxRetryTime time.Duration `env:"RELAY_MAX_RETRY_TIME" envDefault:"0s"`
	// Production hides diagnostic details in error responses.
	Production bool `env:"RELAY_PRODUCTION" envDefault:"false"`
}

// DefaultPreferences returns the preferences used when none are configured.
func DefaultPreferences() Preferences {
	return Preferences{
		MaxRetryLoops:       DefaultMaxRetryLoops,
		ClientMaxRetryLoops: DefaultMaxRetryLoops,
	}
}

// WithDefaults fills zero values with defaults.
func (p Preferences) WithDefaults() Preferences {
	if p.MaxRetryLoops == 0 {
		p.MaxRetryLoops = DefaultMaxRetryLoops
	}
	if p.ClientMaxRetryLoops == 0 {
		p.ClientMaxRetryLoops = DefaultMaxRetryLoops
	}
	return p
}

// Validate reports every invalid field.
func (p Preferences) Validate() error {
	var errs []error
	if p.MaxRetryLoops <= 0 {
		errs = append(errs, errors.Join(ErrInvalidMaxRetryLoops, errors.New("serving")))
	}
	if p.ClientMaxRetryLoops <= 0 {
		errs = append(errs, errors.Join(ErrInvalidMaxRetryLoops, errors.New("client")))
	}
	if p.MaxRetryTime < 0 {
		errs = append(errs, ErrInvalidMaxRetryTime)
	}
	return errors.Join(errs...)
}

// LoadPreferences reads Preferences from the environment.
func LoadPreferences() (Preferences, error) {
	var p Preferences
	if err := Load(&p); err != nil {
		return Preferences{}, err
	}
	p = p.WithDefaults()
	return p, p.Validate()
}
