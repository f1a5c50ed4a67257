// Package config loads bridge settings from a YAML file with environment
// variable overrides for credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	modelpkg "github.com/cexll/modelbridge-go/pkg/model"
)

const (
	envAPIKey  = "ANTHROPIC_API_KEY"
	envBaseURL = "ANTHROPIC_BASE_URL"
)

// Settings is the root configuration document.
type Settings struct {
	Provider string            `yaml:"provider"`
	Model    string            `yaml:"model"`
	APIKey   string            `yaml:"api_key"`
	BaseURL  string            `yaml:"base_url"`
	Headers  map[string]string `yaml:"headers"`
	Options  GenerationOptions `yaml:"options"`
}

// GenerationOptions carries the sampling and budget knobs forwarded to the
// model. Zero values mean "unset" and leave the provider defaults in place.
type GenerationOptions struct {
	MaxTokens      int     `yaml:"max_tokens"`
	ThinkingBudget int     `yaml:"thinking_budget"`
	Temperature    float64 `yaml:"temperature"`
	TopP           float64 `yaml:"top_p"`
	TopK           int     `yaml:"top_k"`
	System         string  `yaml:"system"`
}

// Default returns settings usable without any config file, provided the
// API key is present in the environment.
func Default() Settings {
	s := Settings{
		Provider: "anthropic",
		Model:    "claude-sonnet-4-20250514",
	}
	s.applyEnv()
	return s
}

// Load reads YAML settings from path and applies environment overrides.
// A missing file is an error; use Default for file-less operation.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}

	if s.Provider == "" {
		s.Provider = "anthropic"
	}
	s.applyEnv()

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// applyEnv lets environment variables override file values. Credentials in
// the environment always win so config files can be committed without keys.
func (s *Settings) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(envAPIKey)); v != "" {
		s.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(envBaseURL)); v != "" {
		s.BaseURL = v
	}
}

// Validate reports configuration problems before any network call happens.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Model) == "" {
		return errors.New("settings: model is required")
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return fmt.Errorf("settings: api key is required (set api_key or %s)", envAPIKey)
	}
	if s.Options.MaxTokens < 0 {
		return errors.New("settings: max_tokens must not be negative")
	}
	if s.Options.ThinkingBudget < 0 {
		return errors.New("settings: thinking_budget must not be negative")
	}
	if s.Options.Temperature < 0 || s.Options.Temperature > 1 {
		return errors.New("settings: temperature must be within [0, 1]")
	}
	return nil
}

// ModelConfig converts settings into the provider-facing configuration.
func (s Settings) ModelConfig() modelpkg.ModelConfig {
	extra := map[string]any{}
	if s.Options.MaxTokens > 0 {
		extra["max_tokens"] = s.Options.MaxTokens
	}
	if s.Options.ThinkingBudget > 0 {
		extra["thinking_budget"] = s.Options.ThinkingBudget
	}
	if s.Options.Temperature > 0 {
		extra["temperature"] = s.Options.Temperature
	}
	if s.Options.TopP > 0 {
		extra["top_p"] = s.Options.TopP
	}
	if s.Options.TopK > 0 {
		extra["top_k"] = s.Options.TopK
	}
	if s.Options.System != "" {
		extra["system"] = s.Options.System
	}
	if len(extra) == 0 {
		extra = nil
	}

	return modelpkg.ModelConfig{
		Provider: s.Provider,
		Model:    s.Model,
		APIKey:   s.APIKey,
		BaseURL:  s.BaseURL,
		Headers:  s.Headers,
		Extra:    extra,
	}
}
