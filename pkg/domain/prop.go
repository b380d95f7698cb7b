package domain

import (
	"reflect"
	"strings"
)

const (
	// VariableRefKey is the single key of a persisted variable reference object.
	VariableRefKey = "__variableRef"

	// FunctionPropPrefix marks metadata keys that bind a prop to a registered function.
	// The value of "__function_onClick" is a function registry id; after resolution
	// the "onClick" prop holds the callable.
	FunctionPropPrefix = "__function_"
)

// PropValue is a tagged union over the shapes a prop may take.
// Implementations: Literal, VariableRef, PropMap, Sequence, FunctionRef.
type PropValue interface {
	isPropValue()
}

// Literal is an opaque value (string, number, boolean, nil or any other value).
type Literal struct {
	Value any
}

// VariableRef points at a document Variable by id.
type VariableRef struct {
	ID string
}

// PropMap is a nested prop object; it may contain references at any depth.
type PropMap map[string]PropValue

// Sequence is an opaque list. Sequences are never searched for references.
type Sequence []any

// FunctionRef is the value of a "__function_<name>" key: a Function Registry id.
type FunctionRef struct {
	ID string
}

func (Literal) isPropValue()     {}
func (VariableRef) isPropValue() {}
func (PropMap) isPropValue()     {}
func (Sequence) isPropValue()    {}
func (FunctionRef) isPropValue() {}

// Props maps prop names to values.
type Props map[string]PropValue

// Clone returns a shallow copy. Nested PropMaps are shared.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a new Props with the entries of other laid over p.
func (p Props) Merge(other Props) Props {
	out := make(Props, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Lit wraps a raw value as a Literal.
func Lit(v any) PropValue { return Literal{Value: v} }

// Ref builds a reference to the variable with the given id.
func Ref(id string) PropValue { return VariableRef{ID: id} }

// IsFunctionKey reports whether key is function binding metadata and returns
// the prop name it targets.
func IsFunctionKey(key string) (string, bool) {
	if !strings.HasPrefix(key, FunctionPropPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, FunctionPropPrefix), true
}

// NewPropValue converts a plain decoded value into its PropValue shape.
// {"__variableRef": id} becomes a VariableRef, other objects become a PropMap,
// lists become a Sequence and everything else a Literal.
func NewPropValue(v any) PropValue {
	switch t := v.(type) {
	case PropValue:
		return t
	case map[string]any:
		if id, ok := variableRefID(t); ok {
			return VariableRef{ID: id}
		}
		return PropMap(PropsFromMap(t))
	case []any:
		return Sequence(t)
	default:
		return Literal{Value: v}
	}
}

// PropsFromMap converts a plain map into Props. String values of
// "__function_" keys become FunctionRefs.
func PropsFromMap(m map[string]any) Props {
	if m == nil {
		return nil
	}
	out := make(Props, len(m))
	for k, v := range m {
		if _, ok := IsFunctionKey(k); ok {
			if id, isStr := v.(string); isStr {
				out[k] = FunctionRef{ID: id}
				continue
			}
		}
		out[k] = NewPropValue(v)
	}
	return out
}

// PlainValue converts a PropValue back to its plain representation.
// Function literals are dropped (ok == false) since they cannot be persisted.
func PlainValue(v PropValue) (any, bool) {
	switch t := v.(type) {
	case Literal:
		if t.Value != nil && reflect.TypeOf(t.Value).Kind() == reflect.Func {
			return nil, false
		}
		return t.Value, true
	case VariableRef:
		return map[string]any{VariableRefKey: t.ID}, true
	case PropMap:
		return Props(t).ToMap(), true
	case Sequence:
		return []any(t), true
	case FunctionRef:
		return t.ID, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

// ToMap converts Props to plain maps, stripping function values.
func (p Props) ToMap() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		if plain, ok := PlainValue(v); ok {
			out[k] = plain
		}
	}
	return out
}

// ReferencesVariable reports whether v references id, looking inside nested maps.
func ReferencesVariable(v PropValue, id string) bool {
	switch t := v.(type) {
	case VariableRef:
		return t.ID == id
	case PropMap:
		for _, inner := range t {
			if ReferencesVariable(inner, id) {
				return true
			}
		}
	}
	return false
}

func variableRefID(m map[string]any) (string, bool) {
	if len(m) != 1 {
		return "", false
	}
	id, ok := m[VariableRefKey].(string)
	return id, ok
}
