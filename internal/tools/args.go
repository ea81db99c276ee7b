package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ParamType is the JSON Schema type of a parameter.
type ParamType string

// Supported parameter types.
const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
)

// Param declares one named tool parameter.
type Param struct {
	Default     any
	Name        string
	Type        ParamType
	Description string
}

// Args are bound arguments: every declared parameter is present, either from
// the call or from its default, converted to its declared type.
type Args map[string]any

// String returns a string argument.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns an integer argument.
func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

// Float returns a number argument.
func (a Args) Float(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

// InputSchema describes the parameters as a JSON Schema object.
func (t Tool) InputSchema() map[string]any {
	props := make(map[string]any, len(t.Params))
	for _, p := range t.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

// bind converts raw call arguments to the declared types. Unknown names are
// ignored; missing or null values take the default.
func bind(params []Param, raw map[string]any) (Args, error) {
	args := make(Args, len(params))
	for _, p := range params {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			v = p.Default
		}
		if v == nil {
			continue
		}

		converted, err := convert(p.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArgument, p.Name, err)
		}
		args[p.Name] = converted
	}
	return args, nil
}

func convert(typ ParamType, v any) (any, error) {
	switch typ {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case TypeInteger:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return nil, fmt.Errorf("expected integer, got %v", v)
		}
		return int(f), nil
	case TypeNumber:
		return toFloat(v)
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", typ)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
