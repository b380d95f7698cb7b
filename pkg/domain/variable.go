package domain

import "fmt"

// VariableType is the declared type of a Variable.
type VariableType string

const (
	VariableString   VariableType = "string"
	VariableNumber   VariableType = "number"
	VariableBoolean  VariableType = "boolean"
	VariableFunction VariableType = "function"
)

// Valid reports whether t is one of the known variable types.
func (t VariableType) Valid() bool {
	switch t {
	case VariableString, VariableNumber, VariableBoolean, VariableFunction:
		return true
	}
	return false
}

// ParseVariableType validates a raw type name.
func ParseVariableType(s string) (VariableType, error) {
	t := VariableType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidVariableType, s)
	}
	return t, nil
}

// Variable is a named, typed value that props can reference by id.
// For VariableFunction, DefaultValue holds a Function Registry id.
type Variable struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Type         VariableType `json:"type" yaml:"type"`
	DefaultValue any          `json:"defaultValue" yaml:"defaultValue"`
}

// VariablePatch is a partial update for a Variable.
type VariablePatch struct {
	Name *string
	Type *VariableType

	// DefaultValue is applied only when SetDefault is true, so nil can be written.
	DefaultValue any
	SetDefault   bool
}

// Apply returns v with the patch merged in.
func (p VariablePatch) Apply(v Variable) Variable {
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.Type != nil {
		v.Type = *p.Type
	}
	if p.SetDefault {
		v.DefaultValue = p.DefaultValue
	}
	return v
}
