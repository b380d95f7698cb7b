// Package variables resolves variable references in layer props and children.
//
// Resolution never fails: dangling references and missing functions degrade
// to nil (or "" for children) and are reported through the logger.
package variables

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
)

// FunctionLookup finds callables for function-type variables and
// "__function_" prop keys. *registry.Functions satisfies it.
type FunctionLookup interface {
	Lookup(id string) (registry.Function, bool)
}

// Resolver turns PropValues into plain values.
type Resolver struct {
	Variables []domain.Variable
	Functions FunctionLookup
	Logger    *slog.Logger
}

// ResolveVariableReferences resolves props against variables using the
// package defaults. overrides and functions may be nil.
func ResolveVariableReferences(props domain.Props, variables []domain.Variable, overrides map[string]any, functions FunctionLookup) map[string]any {
	r := Resolver{Variables: variables, Functions: functions}
	return r.ResolveProps(props, overrides)
}

// ResolveChildrenVariableReference resolves variable-bound children to text.
// Text and layer children are returned untouched.
func ResolveChildrenVariableReference(children domain.Children, variables []domain.Variable, overrides map[string]any) domain.Children {
	r := Resolver{Variables: variables}
	return r.ResolveChildren(children, overrides)
}

// ResolveProps resolves every entry of props. overrides maps variable ids
// to values that replace their defaults.
func (r Resolver) ResolveProps(props domain.Props, overrides map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	return r.resolveMap(props, r.index(), overrides)
}

// ResolveChildren stringifies variable-bound children.
func (r Resolver) ResolveChildren(children domain.Children, overrides map[string]any) domain.Children {
	if children.Kind != domain.ChildrenVariable {
		return children
	}
	v, ok := r.index()[children.VariableID]
	if !ok {
		r.logger().Warn("children reference unknown variable", "variable_id", children.VariableID)
		return domain.TextChildren("")
	}
	if v.Type == domain.VariableFunction {
		r.logger().Warn("function variable cannot be used as children", "variable_id", v.ID)
		return domain.TextChildren("")
	}
	return domain.TextChildren(stringify(valueOf(v, overrides)))
}

// Layer bundles the resolved view of a layer.
type Layer struct {
	ID       string
	Type     string
	Name     string
	Props    map[string]any
	Children domain.Children
}

// ResolveLayer resolves the props and children of a single layer.
// Nested layers are not resolved.
func (r Resolver) ResolveLayer(l *domain.Layer, overrides map[string]any) Layer {
	return Layer{
		ID:       l.ID,
		Type:     l.Type,
		Name:     l.Name,
		Props:    r.ResolveProps(l.Props, overrides),
		Children: r.ResolveChildren(l.Children, overrides),
	}
}

func (r Resolver) resolveMap(props domain.Props, vars map[string]domain.Variable, overrides map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	functionKeys := make(map[string]domain.PropValue)

	for key, value := range props {
		if _, ok := domain.IsFunctionKey(key); ok {
			functionKeys[key] = value
			continue
		}
		out[key] = r.resolveValue(value, vars, overrides)
	}

	// Function metadata wins over literal values of the same prop.
	for key, value := range functionKeys {
		name, _ := domain.IsFunctionKey(key)
		out[name] = r.lookupFunction(functionID(value), key)
	}
	return out
}

func (r Resolver) resolveValue(value domain.PropValue, vars map[string]domain.Variable, overrides map[string]any) any {
	switch v := value.(type) {
	case domain.VariableRef:
		variable, ok := vars[v.ID]
		if !ok {
			r.logger().Warn("prop references unknown variable", "variable_id", v.ID)
			return nil
		}
		if variable.Type == domain.VariableFunction {
			id, _ := variable.DefaultValue.(string)
			return r.lookupFunction(id, variable.ID)
		}
		return valueOf(variable, overrides)
	case domain.PropMap:
		return r.resolveMap(domain.Props(v), vars, overrides)
	case domain.Literal:
		return v.Value
	case domain.Sequence:
		return []any(v)
	case domain.FunctionRef:
		return v.ID
	default:
		return nil
	}
}

// lookupFunction returns the callable for id, or nil with a warning.
func (r Resolver) lookupFunction(id, source string) any {
	if r.Functions == nil {
		r.logger().Warn("no function registry configured", "function_id", id, "source", source)
		return nil
	}
	fn, ok := r.Functions.Lookup(id)
	if !ok || fn.Callable == nil {
		r.logger().Warn("function not found in registry", "function_id", id, "source", source)
		return nil
	}
	return fn.Callable
}

func (r Resolver) index() map[string]domain.Variable {
	out := make(map[string]domain.Variable, len(r.Variables))
	for _, v := range r.Variables {
		out[v.ID] = v
	}
	return out
}

func (r Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.NewNop()
	}
	return r.Logger
}

func valueOf(v domain.Variable, overrides map[string]any) any {
	if override, ok := overrides[v.ID]; ok {
		return override
	}
	return v.DefaultValue
}

func functionID(v domain.PropValue) string {
	switch t := v.(type) {
	case domain.FunctionRef:
		return t.ID
	case domain.Literal:
		s, _ := t.Value.(string)
		return s
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}
