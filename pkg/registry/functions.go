package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/schema"
)

// ErrFunctionNotFound is returned when calling an unregistered function.
var ErrFunctionNotFound = errors.New("function not found")

// Callable is the signature of a registered function.
// It receives a context and a map of arguments, and returns a result or error.
type Callable func(ctx context.Context, args map[string]any) (any, error)

// Function is a registry entry.
type Function struct {
	ID       string
	Callable Callable
	Args     schema.Schema
}

// Functions manages the callables that function-type variables point at.
type Functions struct {
	mu  sync.RWMutex
	fns map[string]Function
}

// NewFunctions creates a new empty registry.
func NewFunctions() *Functions {
	return &Functions{fns: make(map[string]Function)}
}

// Register adds a function. If one with the same id exists, it is overwritten.
func (r *Functions) Register(id string, fn Callable, args schema.Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[id] = Function{ID: id, Callable: fn, Args: args}
}

// Lookup returns the function registered under id.
func (r *Functions) Lookup(id string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[id]
	return fn, ok
}

// Call validates args against the argument schema and invokes the function.
func (r *Functions) Call(ctx context.Context, id string, args map[string]any) (any, error) {
	fn, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, id)
	}
	if err := schema.Validate(fn.Args, args); err != nil {
		return nil, fmt.Errorf("function %s: %w", id, err)
	}
	return fn.Callable(ctx, args)
}

// IDs lists the registered function ids in lexical order.
func (r *Functions) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.fns))
	for id := range r.fns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
