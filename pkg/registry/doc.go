// Package registry holds the catalogs the engine consumes: the component
// catalog (prop schemas and default subtrees per layer type) and the function
// registry (callables addressed by function-type variables).
package registry
