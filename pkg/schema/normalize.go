package schema

import (
	"encoding/json"

	"github.com/cexll/modelbridge-go/pkg/content"
)

// Normalize converts a decoded JSON value into a content.Value shaped by the
// guide. It is total: raw content that cannot be reconciled with the guide
// degrades to the most conservative structurally valid value rather than
// failing.
//
// Some encoders emit an empty object where an empty array is meant; an
// array-typed guide corrects that quirk.
func Normalize(raw any, guide *Guide) content.Value {
	if guide != nil {
		switch guide.Type {
		case "array":
			return normalizeArray(raw, guide)
		case "object":
			return normalizeObject(raw, guide)
		}
		if len(guide.AnyOf) > 0 {
			return normalizeUnion(raw, guide)
		}
	}
	return normalizePrimitive(raw)
}

func normalizeArray(raw any, guide *Guide) content.Value {
	switch val := raw.(type) {
	case nil:
		return content.Null()
	case []any:
		out := make([]content.Value, len(val))
		for i, item := range val {
			out[i] = Normalize(item, guide.Items)
		}
		return content.ArrayValue(out)
	case map[string]any:
		// Empty object standing in for an empty array. A populated object
		// cannot be recovered as array elements, so it degrades the same way.
		return content.ArrayValue(nil)
	default:
		return content.ArrayValue(nil)
	}
}

func normalizeObject(raw any, guide *Guide) content.Value {
	if raw == nil {
		return content.Null()
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return content.StructureValue(nil)
	}

	fields := make([]content.Field, 0, len(guide.PropertyOrder))
	for _, name := range guide.PropertyOrder {
		fieldRaw, present := obj[name]
		if present {
			fields = append(fields, content.Field{
				Key:   name,
				Value: Normalize(fieldRaw, guide.Properties[name]),
			})
			continue
		}
		// A declared optional property that the output omitted becomes an
		// explicit null; a missing required property is simply not
		// synthesized.
		if !guide.IsRequired(name) {
			fields = append(fields, content.Field{Key: name, Value: content.Null()})
		}
	}
	return content.StructureValue(fields)
}

func normalizeUnion(raw any, guide *Guide) content.Value {
	// Array recovery runs ahead of generic branch matching so the
	// empty-object-for-empty-array quirk is caught before an object branch
	// can claim the value.
	if isArrayLike(raw) {
		for _, branch := range guide.AnyOf {
			if branch != nil && branch.Type == "array" {
				if v := normalizeArray(raw, branch); v.Kind != content.KindNull {
					return v
				}
			}
		}
	}
	for _, branch := range guide.AnyOf {
		if v := Normalize(raw, branch); v.Kind != content.KindNull {
			return v
		}
	}
	return normalizePrimitive(raw)
}

func isArrayLike(raw any) bool {
	switch val := raw.(type) {
	case []any:
		return true
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

func normalizePrimitive(raw any) content.Value {
	switch val := raw.(type) {
	case nil:
		return content.Null()
	case bool:
		return content.BoolValue(val)
	case float64:
		return content.NumberValue(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return content.StringValue(val.String())
		}
		return content.NumberValue(f)
	case string:
		return content.StringValue(val)
	case []any, map[string]any:
		return content.FromAny(val)
	default:
		return content.Null()
	}
}
