// Package history implements bounded undo/redo stacks over immutable snapshots.
package history

import "reflect"

// DefaultLimit is the number of undo entries kept when no limit is configured.
const DefaultLimit = 100

// Manager keeps undo and redo stacks of snapshots of type T.
// Snapshots must be immutable values; the manager never copies them.
type Manager[T any] struct {
	undo  []T
	redo  []T
	limit int
	equal func(a, b T) bool
}

// Option configures a Manager.
type Option[T any] func(*Manager[T])

// WithLimit bounds the undo stack. Zero means unbounded.
func WithLimit[T any](n int) Option[T] {
	return func(m *Manager[T]) {
		if n >= 0 {
			m.limit = n
		}
	}
}

// WithEqual replaces the structural equality used for no-op coalescing.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(m *Manager[T]) {
		if eq != nil {
			m.equal = eq
		}
	}
}

// New creates a Manager. Equality defaults to reflect.DeepEqual.
func New[T any](opts ...Option[T]) *Manager[T] {
	m := &Manager[T]{
		limit: DefaultLimit,
		equal: func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record registers a transition from prev to next. It pushes prev onto the
// undo stack and clears redo, unless the two are equal. It reports whether an
// entry was created.
func (m *Manager[T]) Record(prev, next T) bool {
	if m.equal(prev, next) {
		return false
	}
	m.undo = append(m.undo, prev)
	if m.limit > 0 && len(m.undo) > m.limit {
		// Drop the oldest entries, releasing their references.
		excess := len(m.undo) - m.limit
		var zero T
		for i := 0; i < excess; i++ {
			m.undo[i] = zero
		}
		m.undo = append(m.undo[:0:0], m.undo[excess:]...)
	}
	m.redo = nil
	return true
}

// Undo pops the last snapshot, pushing current onto the redo stack.
// It returns current and false when there is nothing to undo.
func (m *Manager[T]) Undo(current T) (T, bool) {
	if len(m.undo) == 0 {
		return current, false
	}
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, current)
	return prev, true
}

// Redo is the inverse of Undo.
func (m *Manager[T]) Redo(current T) (T, bool) {
	if len(m.redo) == 0 {
		return current, false
	}
	next := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, current)
	return next, true
}

func (m *Manager[T]) CanUndo() bool { return len(m.undo) > 0 }
func (m *Manager[T]) CanRedo() bool { return len(m.redo) > 0 }

// Len returns the sizes of the undo and redo stacks.
func (m *Manager[T]) Len() (undo, redo int) {
	return len(m.undo), len(m.redo)
}

// Clear drops both stacks.
func (m *Manager[T]) Clear() {
	m.undo = nil
	m.redo = nil
}
