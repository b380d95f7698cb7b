// Package migrate upgrades persisted documents to the current schema version.
//
// Documents are migrated in their plain map form, before decoding, by folding
// a statically indexed table of steps from the stored version to
// CurrentVersion. Every step is pure and total: malformed input is carried
// along untouched rather than rejected.
package migrate

import (
	"encoding/json"
	"math"
)

// CurrentVersion is the schema version produced by Migrate.
const CurrentVersion = 4

// VersionKey is the document key holding the schema version.
const VersionKey = "version"

// Step transforms a document of version N into version N+1.
// It receives a private copy and may modify it in place.
type Step func(doc map[string]any) map[string]any

// steps[n] upgrades version n to n+1. Index 0 is unused.
var steps = [CurrentVersion]Step{
	1: textLayersToSpans,
	2: namespacePageTheme,
	3: addVariables,
}

// Steps returns the step table; element i upgrades version i+1.
func Steps() []Step {
	return append([]Step(nil), steps[1:]...)
}

// StepFrom returns the step upgrading version from to from+1.
func StepFrom(from int) (Step, bool) {
	if from < 1 || from >= CurrentVersion {
		return nil, false
	}
	return steps[from], true
}

// Version reads the schema version of raw. Missing or invalid versions are 1.
func Version(raw map[string]any) int {
	switch v := raw[VersionKey].(type) {
	case int:
		return clampVersion(v)
	case int64:
		return clampVersion(int(v))
	case float64:
		if v == math.Trunc(v) {
			return clampVersion(int(v))
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return clampVersion(int(n))
		}
	case uint64:
		if v <= math.MaxInt32 {
			return clampVersion(int(v))
		}
	}
	return 1
}

func clampVersion(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// NeedsMigration reports whether raw is older than CurrentVersion.
func NeedsMigration(raw map[string]any) bool {
	return Version(raw) < CurrentVersion
}

// Migrate returns raw upgraded to CurrentVersion. Documents already at (or
// beyond) the current version are returned as-is. The input is never modified.
func Migrate(raw map[string]any) map[string]any {
	if raw == nil {
		raw = map[string]any{}
	}
	from := Version(raw)
	if from >= CurrentVersion {
		return raw
	}

	doc := deepCopy(raw).(map[string]any)
	for v := from; v < CurrentVersion; v++ {
		doc = steps[v](doc)
		doc[VersionKey] = v + 1
	}
	return doc
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
