package model

import "context"

// Provider constructs concrete Model implementations for a specific backend
// such as Anthropic.
type Provider interface {
	Name() string
	NewModel(ctx context.Context, cfg ModelConfig) (Model, error)
}

// ModelConfig captures the settings required to build a Model instance.
// Extra carries provider-specific tweaks (token budgets, thinking budget,
// sampling overrides) without bloating the common surface.
type ModelConfig struct {
	Name     string
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Headers  map[string]string
	Extra    map[string]any
}
