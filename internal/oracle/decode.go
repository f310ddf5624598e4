package oracle

import (
	"fmt"
	"strings"
)

// Decoders for untyped oracle JSON. Every component reads model output
// through these instead of asserting types directly, so a row with a
// wrong-typed field degrades into a defined fallback rather than a panic.

// AsObject asserts that v is a JSON object.
func AsObject(v any) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &SchemaError{Reason: fmt.Sprintf("value is %T, want object", v)}
	}
	return obj, nil
}

// AsArray asserts that v is a JSON array.
func AsArray(v any) ([]any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, &SchemaError{Reason: fmt.Sprintf("value is %T, want array", v)}
	}
	return arr, nil
}

// StringField reads a required string field.
func StringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", &SchemaError{Reason: fmt.Sprintf("missing required field %q", key)}
	}
	s, ok := v.(string)
	if !ok {
		return "", &SchemaError{Reason: fmt.Sprintf("field %q has type %T, want string", key, v)}
	}
	if strings.TrimSpace(s) == "" {
		return "", &SchemaError{Reason: fmt.Sprintf("required field %q is empty", key)}
	}
	return s, nil
}

// OptionalStringField reads a string field that may be absent, null or
// empty; all three yield nil.
func OptionalStringField(m map[string]any, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, &SchemaError{Reason: fmt.Sprintf("field %q has type %T, want string or null", key, v)}
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, nil
	}
	return &trimmed, nil
}

// Float64Field reads a required numeric field.
func Float64Field(m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, &SchemaError{Reason: fmt.Sprintf("missing required field %q", key)}
	}
	return asFloat(v, key)
}

// OptionalFloat64Field reads a numeric field that may be absent or null.
// Numeric-as-string values are coerced because extraction output passes
// through spreadsheet-shaped intermediates.
func OptionalFloat64Field(m map[string]any, key string) (*float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	f, err := asFloat(v, key)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func asFloat(v any, key string) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case string:
		f, err := ParseAmount(val)
		if err != nil {
			return 0, &SchemaError{Reason: fmt.Sprintf("field %q: %v", key, err)}
		}
		return f, nil
	default:
		return 0, &SchemaError{Reason: fmt.Sprintf("field %q has type %T, want number", key, v)}
	}
}
