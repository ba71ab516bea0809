package strategy

import (
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/momentum-backtest/internal/indicator"
	"github.com/rxtech-lab/momentum-backtest/internal/types"
	"github.com/rxtech-lab/momentum-backtest/pkg/errors"
)

// Implemented strategies.
const (
	StrategyKDJ = "kdj"
)

// Decision is an order intent emitted by a strategy for the current bar.
type Decision struct {
	Side   types.OrderSide
	Reason string
}

// Strategy consumes the bar series together with its indicator frame and
// decides, once per bar, whether to emit an order intent. A decision is only
// ever emitted on an actual position status change: the engine guarantees a
// BUY is only evaluated while FLAT and a SELL only while LONG.
type Strategy interface {
	// Name returns the strategy name used for registry lookup and reporting.
	Name() string
	// Initialize prepares the strategy for one simulation pass over series.
	// Strategies are single-pass: Initialize must be called again before reuse.
	Initialize(registry indicator.IndicatorRegistry, series types.Series) error
	// OnBar evaluates bar index t and returns an optional decision. No
	// decision is emitted during the indicator warm-up.
	OnBar(t int, position types.Position) (optional.Option[Decision], error)
}

// Factory creates a fresh strategy instance for one simulation pass.
type Factory func() Strategy

// Registry maps strategy names to factories. Adding a strategy means adding
// a variant here, not subclassing.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a strategy registry with all built-in strategies registered.
func NewRegistry() *Registry {
	registry := &Registry{
		factories: make(map[string]Factory),
		mu:        sync.RWMutex{},
	}

	// Built-in strategies. Registration of a built-in never collides.
	_ = registry.Register(StrategyKDJ, func() Strategy { return NewKDJCross() })

	return registry
}

// Register adds a strategy factory under the given name.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "Register: strategy with name %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// Create instantiates a fresh strategy by name. An unknown name is a fatal
// configuration error.
func (r *Registry) Create(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy: '%s'", name)
	}

	return factory(), nil
}

// List returns the names of all registered strategies.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	return names
}
