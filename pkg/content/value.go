package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindStructure
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindStructure:
		return "structure"
	default:
		return "unknown"
	}
}

// Field is one key/value pair of a Structure. The slice order of fields is
// the canonical key order of the structure.
type Field struct {
	Key   string
	Value Value
}

// Value is a provider-agnostic structured value used for tool-call arguments
// and structured model output. A Structure carries its key order explicitly;
// callers must never rely on map iteration order.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Str    string
	Items  []Value
	Fields []Field
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NumberValue wraps a number at float64 precision.
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Number: n} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// ArrayValue wraps an ordered list of values. A nil slice is a valid empty
// array.
func ArrayValue(items []Value) Value { return Value{Kind: KindArray, Items: items} }

// StructureValue wraps an ordered list of fields.
func StructureValue(fields []Field) Value { return Value{Kind: KindStructure, Fields: fields} }

// Keys returns the ordered key list of a Structure, nil for other kinds.
func (v Value) Keys() []string {
	if v.Kind != KindStructure {
		return nil
	}
	keys := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Get returns the field value for key and whether it exists.
func (v Value) Get(key string) (Value, bool) {
	for _, f := range v.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Equal reports deep structural equality, including key order.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindNumber:
		return v.Number == other.Number
	case KindString:
		return v.Str == other.Str
	case KindArray:
		if len(v.Items) != len(other.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	case KindStructure:
		if len(v.Fields) != len(other.Fields) {
			return false
		}
		for i := range v.Fields {
			if v.Fields[i].Key != other.Fields[i].Key {
				return false
			}
			if !v.Fields[i].Value.Equal(other.Fields[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarshalJSON renders the canonical JSON form. Structure keys are written in
// their declared order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case KindNumber:
		data, err := json.Marshal(v.Number)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindString:
		data, err := json.Marshal(v.Str)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindStructure:
		buf.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := f.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("content: cannot encode kind %d", v.Kind)
	}
	return nil
}

// FromAny converts a decoded JSON value (the any-typed shapes produced by
// encoding/json) into a Value. Object keys are sorted lexically since no
// schema governs their order. Unrecognized Go types degrade to Null.
func FromAny(raw any) Value {
	switch val := raw.(type) {
	case nil:
		return Null()
	case bool:
		return BoolValue(val)
	case float64:
		return NumberValue(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return StringValue(val.String())
		}
		return NumberValue(f)
	case string:
		return StringValue(val)
	case []any:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = FromAny(item)
		}
		return ArrayValue(items)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, len(keys))
		for i, k := range keys {
			fields[i] = Field{Key: k, Value: FromAny(val[k])}
		}
		return StructureValue(fields)
	default:
		return Null()
	}
}

// ParseJSON decodes raw JSON text into a Value with lexically sorted object
// keys.
func ParseJSON(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("content: parse json: %w", err)
	}
	return FromAny(raw), nil
}
