package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Guide is the subset of JSON Schema used to shape model output. It guides
// normalization of raw JSON and is translated into the provider's
// structured-output envelope.
type Guide struct {
	Type        string
	Description string
	Properties  map[string]*Guide
	// PropertyOrder is the canonical iteration order for Properties, lexical
	// by property name.
	PropertyOrder []string
	Required      []string
	Items         *Guide
	AnyOf         []*Guide
}

type rawGuide struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Properties  map[string]*rawGuide `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
	Items       *rawGuide            `json:"items,omitempty"`
	AnyOf       []*rawGuide          `json:"anyOf,omitempty"`
}

// Parse decodes a JSON Schema document into a Guide.
func Parse(data []byte) (*Guide, error) {
	var raw rawGuide
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schema: parse guide: %w", err)
	}
	return fromRaw(&raw), nil
}

func fromRaw(raw *rawGuide) *Guide {
	if raw == nil {
		return nil
	}
	g := &Guide{
		Type:        raw.Type,
		Description: raw.Description,
		Required:    raw.Required,
		Items:       fromRaw(raw.Items),
	}
	if len(raw.Properties) > 0 {
		g.Properties = make(map[string]*Guide, len(raw.Properties))
		g.PropertyOrder = make([]string, 0, len(raw.Properties))
		for name, prop := range raw.Properties {
			g.Properties[name] = fromRaw(prop)
			g.PropertyOrder = append(g.PropertyOrder, name)
		}
		sort.Strings(g.PropertyOrder)
	}
	for _, branch := range raw.AnyOf {
		g.AnyOf = append(g.AnyOf, fromRaw(branch))
	}
	return g
}

// IsRequired reports whether the named property is in the required list.
func (g *Guide) IsRequired(name string) bool {
	for _, req := range g.Required {
		if req == name {
			return true
		}
	}
	return false
}
