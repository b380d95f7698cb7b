// Package schema describes the props a component accepts.
//
// A Schema maps prop names to types. Types validate literal values and may
// carry a default, which the document store writes when a component is
// created or a prop is unbound from a variable:
//
//	button := schema.Schema{
//	    "label":    schema.WithDefault(schema.String(), "Button"),
//	    "variant":  schema.WithDefault(schema.Enum("default", "outline"), "default"),
//	    "disabled": schema.Optional(schema.Boolean()),
//	    "onClick":  schema.Optional(schema.Function()),
//	}
//
//	label, ok := schema.Default(button, "label") // "Button", true
//
// Schemas can also be parsed from type strings, which is how component
// catalogs are loaded from configuration files:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "label": "string",
//	    "size":  "enum(sm|md|lg)?",
//	    "tags":  "[string]",
//	})
//
// Function registries reuse Schema to describe the arguments of a callable.
package schema
