package model

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory holds the registered Provider implementations and creates models
// on demand.
type Factory struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewFactory constructs a factory seeded with the provided providers.
func NewFactory(providers ...Provider) *Factory {
	f := &Factory{
		providers: make(map[string]Provider, len(providers)),
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		f.providers[p.Name()] = p
	}
	return f
}

// Register attaches or replaces a Provider implementation.
func (f *Factory) Register(p Provider) {
	if p == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.providers == nil {
		f.providers = map[string]Provider{}
	}
	f.providers[p.Name()] = p
}

// Providers lists the registered provider names in stable order.
func (f *Factory) Providers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewModel builds a model instance through the provider declared in cfg.
func (f *Factory) NewModel(ctx context.Context, cfg ModelConfig) (Model, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("model provider not specified")
	}

	f.mu.RLock()
	provider := f.providers[cfg.Provider]
	f.mu.RUnlock()
	if provider == nil {
		return nil, fmt.Errorf("model provider %q is not registered", cfg.Provider)
	}

	return provider.NewModel(ctx, cfg)
}
