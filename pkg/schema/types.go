package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Type defines the contract for field validation.
type Type interface {
	// Name returns the type expression, e.g. "string" or "[number]".
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// Defaulter is implemented by types that declare a default value.
type Defaulter interface {
	Default() (any, bool)
}

// Optionaler is implemented by types whose field may be absent.
type Optionaler interface {
	Optional() bool
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type numberType struct{}

func (numberType) Name() string { return "number" }

func (numberType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("expected number: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

type booleanType struct{}

func (booleanType) Name() string { return "boolean" }

func (booleanType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected boolean, got %T", value)
	}
	return nil
}

// functionType accepts callables and, before resolution, function registry ids.
type functionType struct{}

func (functionType) Name() string { return "function" }

func (functionType) Validate(value any) error {
	if _, ok := value.(string); ok {
		return nil
	}
	if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
		return nil
	}
	return fmt.Errorf("expected function, got %T", value)
}

type anyType struct{}

func (anyType) Name() string         { return "any" }
func (anyType) Validate(_ any) error { return nil }

type objectType struct{}

func (objectType) Name() string { return "object" }

func (objectType) Validate(value any) error {
	if value == nil || reflect.TypeOf(value).Kind() != reflect.Map {
		return fmt.Errorf("expected object, got %T", value)
	}
	return nil
}

type enumType struct {
	values []string
}

func (t enumType) Name() string {
	return "enum(" + strings.Join(t.values, "|") + ")"
}

func (t enumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected one of %v, got %T", t.values, value)
	}
	for _, v := range t.values {
		if v == s {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %v", s, t.values)
}

type sliceType struct {
	elem Type
}

func (t sliceType) Name() string {
	return "[" + t.elem.Name() + "]"
}

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type customType struct {
	name     string
	validate func(any) error
}

func (t customType) Name() string             { return t.name }
func (t customType) Validate(value any) error { return t.validate(value) }

type optionalType struct {
	Type
}

func (t optionalType) Name() string   { return t.Type.Name() + "?" }
func (t optionalType) Optional() bool { return true }

// Default forwards to a wrapped Defaulter so Optional(WithDefault(..)) keeps the default.
func (t optionalType) Default() (any, bool) {
	if d, ok := t.Type.(Defaulter); ok {
		return d.Default()
	}
	return nil, false
}

type defaultType struct {
	Type
	value any
}

func (t defaultType) Default() (any, bool) { return t.value, true }
func (t defaultType) Optional() bool       { return true }

// String accepts strings.
func String() Type { return stringType{} }

// Number accepts any Go numeric value and json.Number.
func Number() Type { return numberType{} }

// Boolean accepts bools.
func Boolean() Type { return booleanType{} }

// Function accepts callables and function registry ids.
func Function() Type { return functionType{} }

// Any accepts every value.
func Any() Type { return anyType{} }

// Object accepts maps.
func Object() Type { return objectType{} }

// Enum accepts one of the given strings.
func Enum(values ...string) Type { return enumType{values: values} }

// Slice accepts slices whose elements are of elem.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// Custom creates a type validated by a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return customType{name: name, validate: validate}
}

// Optional marks a field as not required.
func Optional(t Type) Type { return optionalType{Type: t} }

// WithDefault attaches a default value to t. Defaulted fields are optional.
func WithDefault(t Type, value any) Type { return defaultType{Type: t, value: value} }

// IsOptional reports whether a field of type t may be absent.
func IsOptional(t Type) bool {
	o, ok := t.(Optionaler)
	return ok && o.Optional()
}

// ParseType converts a type expression into a Type.
//
// Supported: string, number (int, float), boolean (bool), function, any,
// object, enum(a|b|c), [T] and a trailing "?" for optional fields.
func ParseType(expr string) (Type, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasSuffix(expr, "?") {
		inner, err := ParseType(strings.TrimSuffix(expr, "?"))
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}

	if len(expr) > 2 && expr[0] == '[' && expr[len(expr)-1] == ']' {
		elem, err := ParseType(expr[1 : len(expr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}

	if strings.HasPrefix(expr, "enum(") && strings.HasSuffix(expr, ")") {
		body := strings.TrimSuffix(strings.TrimPrefix(expr, "enum("), ")")
		if body == "" {
			return nil, fmt.Errorf("enum without values: %s", expr)
		}
		return Enum(strings.Split(body, "|")...), nil
	}

	switch expr {
	case "string":
		return String(), nil
	case "number", "int", "float":
		return Number(), nil
	case "boolean", "bool":
		return Boolean(), nil
	case "function":
		return Function(), nil
	case "any":
		return Any(), nil
	case "object":
		return Object(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", expr)
	}
}

// ParseTypeMap converts field names to type expressions into a Schema.
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, expr := range typeMap {
		t, err := ParseType(expr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
