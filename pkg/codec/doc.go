// Package codec converts documents between the domain model and their
// persisted form: a tree of plain maps, serialized as JSON or YAML.
//
// Decoding always runs the migration pipeline first, so callers can feed
// documents of any historical version. Encoding writes CurrentVersion and
// strips function values from props.
package codec
