package tool

import (
	"encoding/json"
	"fmt"

	"github.com/cexll/modelbridge-go/pkg/content"
	"github.com/cexll/modelbridge-go/pkg/schema"
)

// validateArgs checks call arguments against the tool's declared input
// schema. Validation covers required properties and primitive type shapes;
// a nil or empty schema accepts anything.
func validateArgs(args content.Value, inputSchema json.RawMessage) error {
	if len(inputSchema) == 0 {
		return nil
	}
	guide, err := schema.Parse(inputSchema)
	if err != nil {
		return fmt.Errorf("parse input schema: %w", err)
	}
	return validateValue(args, guide)
}

func validateValue(v content.Value, guide *schema.Guide) error {
	if guide == nil {
		return nil
	}

	switch guide.Type {
	case "object":
		if v.Kind != content.KindStructure {
			return fmt.Errorf("expected object but got %s", kindName(v.Kind))
		}
		for _, name := range guide.Required {
			if _, ok := v.Get(name); !ok {
				return fmt.Errorf("missing required field: %s", name)
			}
		}
		for _, name := range v.Keys() {
			prop, ok := guide.Properties[name]
			if !ok {
				continue
			}
			field, _ := v.Get(name)
			if field.Kind == content.KindNull && !guide.IsRequired(name) {
				continue
			}
			if err := validateValue(field, prop); err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
		}
	case "array":
		if v.Kind != content.KindArray {
			return fmt.Errorf("expected array but got %s", kindName(v.Kind))
		}
		for i, item := range v.Items {
			if err := validateValue(item, guide.Items); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	case "string":
		if v.Kind != content.KindString {
			return fmt.Errorf("expected string but got %s", kindName(v.Kind))
		}
	case "number", "integer":
		if v.Kind != content.KindNumber {
			return fmt.Errorf("expected %s but got %s", guide.Type, kindName(v.Kind))
		}
	case "boolean":
		if v.Kind != content.KindBool {
			return fmt.Errorf("expected boolean but got %s", kindName(v.Kind))
		}
	case "null":
		if v.Kind != content.KindNull {
			return fmt.Errorf("expected null but got %s", kindName(v.Kind))
		}
	}
	return nil
}

func kindName(k content.Kind) string {
	switch k {
	case content.KindNull:
		return "null"
	case content.KindBool:
		return "boolean"
	case content.KindNumber:
		return "number"
	case content.KindString:
		return "string"
	case content.KindArray:
		return "array"
	case content.KindStructure:
		return "object"
	}
	return "unknown"
}
