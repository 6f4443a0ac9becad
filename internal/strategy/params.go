package strategy

import (
	"errors"
	"fmt"
)

// ParamType describes the value type of a strategy parameter.
type ParamType string

const (
	ParamInt   ParamType = "int"
	ParamFloat ParamType = "float"
	ParamBool  ParamType = "bool"
)

// ParamSpec declaratively describes one strategy parameter so external
// configuration surfaces can render and validate controls without executing
// strategy code. Min/Max are inclusive bounds for numeric parameters and are
// ignored when both are zero.
type ParamSpec struct {
	Name    string
	Type    ParamType
	Min     float64
	Max     float64
	Default any
	Label   string
}

// Params is the externally supplied parameter map for one strategy instance.
// YAML and JSON decoders produce int, float64, and bool values; the accessors
// tolerate all numeric representations.
type Params map[string]any

// ErrInvalidParams is wrapped by every parameter validation failure.
var ErrInvalidParams = errors.New("invalid strategy parameters")

// Int returns the named parameter as an int, or def when absent.
func (p Params) Int(name string, def int) int {
	v, ok := p[name]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// Float returns the named parameter as a float64, or def when absent.
func (p Params) Float(name string, def float64) float64 {
	v, ok := p[name]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}

// Bool returns the named parameter as a bool, or def when absent.
func (p Params) Bool(name string, def bool) bool {
	if v, ok := p[name]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Defaults builds the parameter map holding every schema default.
func Defaults(schema []ParamSpec) Params {
	p := make(Params, len(schema))
	for _, spec := range schema {
		p[spec.Name] = spec.Default
	}
	return p
}

// ValidateParams checks a parameter map against a schema: unknown names are
// rejected rather than silently dropped, values must match the declared type,
// and numeric values must fall within the declared bounds.
func ValidateParams(schema []ParamSpec, p Params) error {
	specs := make(map[string]ParamSpec, len(schema))
	for _, spec := range schema {
		specs[spec.Name] = spec
	}

	for name, value := range p {
		spec, ok := specs[name]
		if !ok {
			return fmt.Errorf("%w: unknown parameter %q", ErrInvalidParams, name)
		}

		switch spec.Type {
		case ParamBool:
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("%w: %s must be a bool, got %T", ErrInvalidParams, name, value)
			}
		case ParamInt, ParamFloat:
			var n float64
			switch v := value.(type) {
			case int:
				n = float64(v)
			case int64:
				n = float64(v)
			case float64:
				n = v
				if spec.Type == ParamInt && n != float64(int64(n)) {
					return fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParams, name, v)
				}
			default:
				return fmt.Errorf("%w: %s must be numeric, got %T", ErrInvalidParams, name, value)
			}
			if spec.Min != 0 || spec.Max != 0 {
				if n < spec.Min || n > spec.Max {
					return fmt.Errorf("%w: %s=%v outside [%v, %v]", ErrInvalidParams, name, n, spec.Min, spec.Max)
				}
			}
		default:
			return fmt.Errorf("%w: %s has unknown type %q in schema", ErrInvalidParams, name, spec.Type)
		}
	}
	return nil
}
