// Package memstore is a small in-memory backing data context. It plays the
// store role behind a schema's context factory: query and field expressions
// close over a *Store and read typed tables from it at evaluation time.
package memstore

import (
	"reflect"
)

// Store holds one slice-valued table per row type.
type Store struct {
	tables map[reflect.Type]any
}

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[reflect.Type]any)}
}

// Snapshot returns a read view sharing the current tables. Suitable as a
// context factory when the dataset is fixed after startup.
func (s *Store) Snapshot() *Store {
	tables := make(map[reflect.Type]any, len(s.tables))
	for t, rows := range s.tables {
		tables[t] = rows
	}
	return &Store{tables: tables}
}

// Add appends rows to T's table.
func Add[T any](s *Store, rows ...T) {
	t := reflect.TypeFor[T]()
	existing, _ := s.tables[t].([]T)
	s.tables[t] = append(existing, rows...)
}

// All returns T's table in insertion order. A missing table is empty, not
// an error.
func All[T any](s *Store) []T {
	rows, _ := s.tables[reflect.TypeFor[T]()].([]T)
	return rows
}

// Filter returns the rows of T's table satisfying keep, in insertion order.
func Filter[T any](s *Store, keep func(T) bool) []T {
	var out []T
	for _, row := range All[T](s) {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// Count reports the size of T's table.
func Count[T any](s *Store) int {
	return len(All[T](s))
}
