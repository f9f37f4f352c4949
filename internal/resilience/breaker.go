// Package resilience guards calls to remote dependencies with a circuit
// breaker.
package resilience

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Defaults applied when BreakerConfig leaves a field at zero.
const (
	DefaultMaxFailures = 5
	DefaultOpenTimeout = 30 * time.Second
)

// BreakerConfig holds configuration for a Breaker.
type BreakerConfig struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int
	// OpenTimeout is how long the circuit stays open before a probe call.
	OpenTimeout time.Duration
	// IsSuccessful reports whether an error still counts as a healthy call.
	// Nil counts only a nil error as success.
	IsSuccessful func(err error) bool
}

// Breaker wraps a gobreaker circuit breaker.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker creates a Breaker that logs its state transitions to log.
func NewBreaker(cfg BreakerConfig, log *slog.Logger) *Breaker {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	maxFailures := uint32(cfg.MaxFailures)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: cfg.IsSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs op unless the circuit is open.
func (b *Breaker) Execute(op func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, op()
	})
	return err
}

// State returns the current circuit state as text.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// IsOpen reports whether err was returned because the circuit rejected
// the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
