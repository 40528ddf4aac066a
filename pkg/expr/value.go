package expr

import (
	"fmt"
)

// Environment maps financial field names to their values for one
// evaluation. It is built per evaluation and never mutated by the
// evaluator. Supported value types after normalization: int64, float64,
// bool, string, and []any of those.
type Environment map[string]any

// normalizeValue widens Go's assorted numeric types into the evaluator's
// canonical int64/float64 representation. Unknown types pass through and
// surface as TypeErrors when operated on.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

// isNumeric reports whether v is a canonical numeric value.
func isNumeric(v any) bool {
	switch v.(type) {
	case int64, float64:
		return true
	}
	return false
}

// asFloat converts a canonical numeric value to float64.
func asFloat(v any) float64 {
	switch val := v.(type) {
	case int64:
		return float64(val)
	case float64:
		return val
	}
	return 0
}

// bothInt reports whether both values are integers.
func bothInt(a, b any) bool {
	_, ai := a.(int64)
	_, bi := b.(int64)
	return ai && bi
}

// truthy converts a value to its boolean interpretation: booleans are
// themselves, numbers are true when non-zero, strings and lists when
// non-empty.
func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case nil:
		return false
	}
	return true
}

// typeName returns a short name for a value's type, for error messages.
func typeName(v any) string {
	switch v.(type) {
	case int64:
		return "integer"
	case float64:
		return "float"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "list"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
