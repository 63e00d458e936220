package jobtype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a JSON Schema document.
type Schema map[string]any

// JSON renders the schema as indented JSON.
func (s Schema) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Enum is a schema accepting exactly the given values. Repeated values are
// listed once. An empty enumeration matches nothing.
func Enum(values ...any) Schema {
	if len(values) == 0 {
		return Schema{"not": Schema{}}
	}
	seen := make(map[string]bool, len(values))
	out := make([]any, 0, len(values))
	for _, v := range values {
		if key, err := json.Marshal(v); err == nil {
			if seen[string(key)] {
				continue
			}
			seen[string(key)] = true
		}
		out = append(out, v)
	}
	return Schema{"enum": out}
}

// TypeSchema is a schema of the form {"type": name}.
func TypeSchema(name string) Schema {
	return Schema{"type": name}
}

// StringSchema is a string schema with an optional maximum length.
func StringSchema(maxLength int) Schema {
	s := Schema{"type": "string"}
	if maxLength > 0 {
		s["maxLength"] = maxLength
	}
	return s
}

// ObjectSchema is an object schema with the given properties, all of which
// are required. Additional properties are allowed.
func ObjectSchema(properties map[string]Schema) Schema {
	props := make(map[string]any, len(properties))
	required := make([]any, 0, len(properties))
	for _, name := range slices.Sorted(maps.Keys(properties)) {
		props[name] = properties[name]
		required = append(required, name)
	}
	s := Schema{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// ValidateSchema checks v against schema.
func ValidateSchema(schema Schema, v any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(map[string]any(schema)),
		gojsonschema.NewGoLoader(v),
	)
	if err != nil {
		return &SchemaValidationError{Value: v, Schema: schema, Details: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, e.String())
	}
	return &SchemaValidationError{Value: v, Schema: schema, Details: details}
}

// ============================================================================
// JSON value helpers
// Values arrive either from encoding/json (float64, or json.Number when
// decoded with UseNumber) or from Go callers (int, int64, ...).
// ============================================================================

// AsInt64 extracts an integral number.
func AsInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || x >= math.MaxInt64 || x < math.MinInt64 {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return AsInt64(f)
	default:
		return 0, false
	}
}

// AsFloat64 extracts any number.
func AsFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		if i, ok := AsInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

// DecodeJSON decodes UTF-8 JSON text, keeping numbers as json.Number.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, ShapeErrorf("invalid JSON: %v", err)
	}
	if dec.More() {
		return nil, ShapeErrorf("trailing data after JSON value")
	}
	return v, nil
}

// Normalize rewrites a decoded JSON value so that integral numbers become
// int64 and other numbers float64. It is used when comparing values from
// different sources.
func Normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		if i, ok := AsInt64(x); ok {
			return i
		}
		f, _ := AsFloat64(x)
		return f
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	default:
		return v
	}
}

func describe(v any) string {
	return fmt.Sprintf("%v (%T)", v, v)
}
