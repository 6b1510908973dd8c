package intent

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/brizzai/auto-api/internal/parser"
)

// Coerce converts each value to the type its parameter declares. Values
// that cannot be converted, undeclared parameters and parameters without a
// known type are passed through unchanged; failures are reported as
// warnings, never as errors. params is not modified.
func Coerce(op parser.Operation, params map[string]any) (map[string]any, []CoercionWarning) {
	out := make(map[string]any, len(params))
	var warnings []CoercionWarning

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := params[name]
		out[name] = value
		p, ok := op.Parameter(name)
		if !ok || value == nil {
			continue
		}
		typ := p.Type()
		coerced, err := CoerceValue(typ, value)
		if err != nil {
			warnings = append(warnings, CoercionWarning{
				Parameter: name,
				Expected:  typ,
				Value:     value,
				Reason:    err.Error(),
			})
			continue
		}
		out[name] = coerced
	}
	return out, warnings
}

// CoerceValue converts value to the JSON Schema type typ. Unknown types
// return value untouched.
func CoerceValue(typ string, value any) (any, error) {
	switch typ {
	case "integer":
		return toInteger(value)
	case "number":
		return toNumber(value)
	case "boolean":
		return toBoolean(value)
	default:
		return value, nil
	}
}

func toInteger(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return value, fmt.Errorf("%v is not a whole number", v)
		}
		return int64(v), nil
	case json.Number:
		return toInteger(string(v))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return value, fmt.Errorf("cannot parse %q as integer", v)
		}
		return n, nil
	default:
		return value, fmt.Errorf("cannot convert %T to integer", value)
	}
}

func toNumber(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return toNumber(string(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return value, fmt.Errorf("cannot parse %q as number", v)
		}
		return f, nil
	default:
		return value, fmt.Errorf("cannot convert %T to number", value)
	}
}

func toBoolean(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return value, fmt.Errorf("cannot parse %q as boolean", v)
	case float64:
		switch v {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	case int64:
		return toBoolean(float64(v))
	case int:
		return toBoolean(float64(v))
	}
	return value, fmt.Errorf("cannot convert %v to boolean", value)
}
