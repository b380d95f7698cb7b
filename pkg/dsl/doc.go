/*
Package dsl provides a fluent Go API for constructing arbor documents.

It is meant for fixtures, examples and seeding stores without writing the
persisted JSON/YAML form by hand. Layer ids are explicit, as they are when a
document is loaded.

Example usage:

	b := dsl.New()
	b.Variable("v1", "title", domain.VariableString, "Welcome")

	b.Page("home", "Home").Add(
		dsl.Layer("hero", "Flex").Name("Hero").Add(
			dsl.Layer("h1", "span").BindChildren("v1"),
			dsl.Layer("cta", "Button").Prop("variant", "outline").Text("Start"),
		),
	)

	doc, err := b.Build()
*/
package dsl
