package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"trade-tracker/observability"
)

// Circuit breaker names for the external services this process talks to
const (
	BreakerCoinGecko = "coingecko"
	BreakerTelegram  = "telegram"
)

// BreakerConfig tunes every breaker a registry hands out
type BreakerConfig struct {
	// MaxRequests allowed through while half-open
	MaxRequests uint32
	// Interval resets the closed-state counters
	Interval time.Duration
	// Timeout is how long an open breaker stays open
	Timeout time.Duration
}

var DefaultBreakerConfig = BreakerConfig{
	MaxRequests: 5,
	Interval:    1 * time.Minute,
	Timeout:     30 * time.Second,
}

// BreakerRegistry lazily creates one circuit breaker per external service
// name, all sharing the same config.
type BreakerRegistry struct {
	mu       sync.Mutex
	config   BreakerConfig
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewBreakerRegistry creates an empty registry
func NewBreakerRegistry(config BreakerConfig) *BreakerRegistry {
	return &BreakerRegistry{
		config:   config,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (r *BreakerRegistry) get(name string) *gobreaker.CircuitBreaker[any] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: r.config.MaxRequests,
		Interval:    r.config.Interval,
		Timeout:     r.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// At least 5 requests with a failure ratio of 50% or worse.
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())

			m := observability.GetMetrics()
			m.SetCircuitBreakerState(name, stateToInt(to))
			if to == gobreaker.StateOpen {
				m.RecordCircuitBreakerTrip(name)
			}
		},
	})
	r.breakers[name] = cb
	return cb
}

// Do runs fn through the named breaker. A rejected call (open breaker or
// half-open overflow) comes back as an "unavailable" error rather than
// the raw gobreaker sentinel.
func (r *BreakerRegistry) Do(ctx context.Context, name string, fn func() (any, error)) (any, error) {
	result, err := r.get(name).Execute(func() (any, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return fn()
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		observability.Warn("circuit breaker rejected request", "breaker", name, "error", err)
		return nil, fmt.Errorf("service %s unavailable: %w", name, err)
	}
	return result, err
}

var (
	breakerRegistry     *BreakerRegistry
	breakerRegistryOnce sync.Once
)

// GlobalBreakerRegistry returns the process-wide registry
func GlobalBreakerRegistry() *BreakerRegistry {
	breakerRegistryOnce.Do(func() {
		if breakerRegistry == nil {
			breakerRegistry = NewBreakerRegistry(DefaultBreakerConfig)
		}
	})
	return breakerRegistry
}

// SetBreakerRegistry replaces the global registry, for tests
func SetBreakerRegistry(r *BreakerRegistry) {
	breakerRegistry = r
}

// WithCircuitBreaker runs fn through the named breaker in the global
// registry, preserving fn's result type.
func WithCircuitBreaker[T any](ctx context.Context, name string, fn func() (T, error)) (T, error) {
	result, err := GlobalBreakerRegistry().Do(ctx, name, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// stateToInt maps a breaker state onto the metrics gauge:
// 0=closed, 1=half-open, 2=open.
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
