package schema

// Schema is a map of field names to their expected types.
type Schema map[string]Type

// HasField reports whether the schema declares field.
func (s Schema) HasField(field string) bool {
	_, ok := s[field]
	return ok
}

// Default returns the declared default of field.
func Default(s Schema, field string) (any, bool) {
	t, ok := s[field]
	if !ok {
		return nil, false
	}
	d, ok := t.(Defaulter)
	if !ok {
		return nil, false
	}
	return d.Default()
}

// Defaults returns every declared default value keyed by field.
func Defaults(s Schema) map[string]any {
	out := make(map[string]any)
	for field := range s {
		if v, ok := Default(s, field); ok {
			out[field] = v
		}
	}
	return out
}

// Validate checks if data conforms to the schema. Non-optional fields are
// required. Fields not declared by the schema are ignored.
func Validate(schema Schema, data map[string]any) error {
	var errs []error
	for field, typ := range schema {
		value, exists := data[field]
		if !exists {
			if !IsOptional(typ) {
				errs = append(errs, &ValidationError{Key: field, Reason: "required"})
			}
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: field, Reason: err.Error(), Value: value})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidatePresent validates only the fields present in data, skipping
// those for which skip returns true (e.g. values bound to a variable).
func ValidatePresent(schema Schema, data map[string]any, skip func(field string) bool) error {
	var errs []error
	for field, value := range data {
		typ, ok := schema[field]
		if !ok || (skip != nil && skip(field)) {
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: field, Reason: err.Error(), Value: value})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
