package strategy

import (
	"sync"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Factory builds a strategy from a YAML config document. An empty config
// means "use the defaults".
type Factory func(config string) (Strategy, error)

// Registry manages the available strategy factories, keyed by name.
type Registry interface {
	Register(name string, factory Factory) error
	Create(name string, config string) (Strategy, error)
	List() []string
}

type registryV1 struct {
	factories map[string]Factory
	names     []string
	mu        sync.RWMutex
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() Registry {
	return &registryV1{
		factories: make(map[string]Factory),
	}
}

// NewDefaultRegistry creates a registry with all built-in strategies
// registered.
func NewDefaultRegistry() Registry {
	registry := NewRegistry()

	_ = registry.Register(RSIStrategyName, func(config string) (Strategy, error) {
		return NewRSIStrategyFromConfig(config)
	})
	_ = registry.Register(RSITrendStrategyName, func(config string) (Strategy, error) {
		return NewRSITrendStrategyFromConfig(config)
	})
	_ = registry.Register(MACrossStrategyName, func(config string) (Strategy, error) {
		return NewMACrossStrategyFromConfig(config)
	})
	_ = registry.Register(MACDStrategyName, func(config string) (Strategy, error) {
		return NewMACDStrategyFromConfig(config)
	})

	return registry
}

// Register adds a strategy factory to the registry.
func (r *registryV1) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy %q already registered", name)
	}

	r.factories[name] = factory
	r.names = append(r.names, name)

	return nil
}

// Create builds a strategy by name from a YAML config document.
func (r *registryV1) Create(name string, config string) (Strategy, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q not found", name)
	}

	return factory(config)
}

// List returns the registered strategy names in registration order.
func (r *registryV1) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.names))
	copy(names, r.names)

	return names
}
