package condition

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// parseLiteral parses the right-hand side of a comparison.
// Bracketed lists go through the strict JSON parser first, with a lenient
// comma-split fallback for the single-quoted lists people actually write.
// Everything else is a scalar.
func parseLiteral(s string) any {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return parseList(s)
	}
	return parseScalar(s)
}

// parseList parses a bracketed list literal.
func parseList(s string) []any {
	var strict []any
	if err := json.Unmarshal([]byte(s), &strict); err == nil {
		return strict
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []any{}
	}

	parts := strings.Split(inner, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		out = append(out, parseScalar(strings.TrimSpace(p)))
	}
	return out
}

// parseScalar parses a scalar literal: quoted string, integer, float,
// boolean, or bare string, tried in that order.
func parseScalar(s string) any {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// toFloat coerces a context value or parsed literal to float64.
// Strings are parsed; booleans are not numbers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// looseEqual compares a raw context value against a parsed literal.
// Numbers compare by value across types (an int 15 from YAML equals the
// float64 15 that JSON produces); everything else compares strictly.
func looseEqual(a, b any) bool {
	if af, aok := toFloatStrict(a); aok {
		if bf, bok := toFloatStrict(b); bok {
			return af == bf
		}
		return false
	}
	// reflect.DeepEqual rather than == so that slice-valued context entries
	// compare instead of panicking.
	return reflect.DeepEqual(a, b)
}

// toFloatStrict is toFloat without the string coercion: only values that
// are already numbers participate in numeric equality.
func toFloatStrict(v any) (float64, bool) {
	if _, isString := v.(string); isString {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	return toFloat(v)
}

// truthy reports the boolean-ish value of a context entry: false for nil,
// false, zero numbers, empty strings, and empty containers.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		if f, ok := toFloat(v); ok {
			return f != 0
		}
		return true
	}
}
