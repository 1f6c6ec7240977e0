package schema

import (
	"fmt"
	"reflect"
)

// Complete is the single transition from an open, mutable schema to a
// frozen, request-serving one. It declares the introspection surface,
// validates structural invariants, and synthesizes a projection per type.
// Calling it twice fails, as does any mutation afterwards.
func (s *Schema) Complete() error {
	if s.completed {
		return fmt.Errorf("complete: %w", ErrCompleted)
	}

	// Validate the caller's shapes before the introspection declarations
	// touch the registries. A failed Complete then leaves the schema
	// exactly as the caller built it, so it can be fixed and retried, and
	// a repeated call reports the root cause instead of a collision with
	// the half-declared meta types.
	for _, d := range s.types {
		if err := validateShape(d); err != nil {
			return err
		}
	}

	// Introspection types join the type set before the sweep so they are
	// completed in the same pass as user types. They are valid by
	// construction; only caller-declared shapes need the check above.
	if err := declareIntrospection(s); err != nil {
		return err
	}

	for _, d := range s.types {
		if d.projection != nil {
			continue
		}
		if d.Scalar {
			// A scalar's projection is its own host type; nothing to
			// synthesize.
			d.projection = newScalarProjection(d.Name, d.HostType)
			continue
		}
		d.projection = newProjection(d.Name, s.projectionKeys(d))
	}

	s.completed = true
	return nil
}

// validateShape enforces the scalar/field-count invariant. Post fields do
// not count toward a non-scalar type's required fields, so an empty user
// type still fails even after __typename is attached.
func validateShape(d *TypeDescriptor) error {
	pre := 0
	for _, f := range d.fields {
		if !f.post {
			pre++
		}
	}
	if d.Scalar && len(d.fields) > 0 {
		return fmt.Errorf("scalar type %s declares %d fields: %w", d.Name, len(d.fields), ErrInvalidShape)
	}
	if !d.Scalar && pre == 0 {
		return fmt.Errorf("type %s declares no fields: %w", d.Name, ErrInvalidShape)
	}
	return nil
}

// projectionKeys derives a type's row shape: one key per field in declared
// order. Pre keys carry the field's scalar host type when the target is
// scalar, or are opaque for nested entity values resolved recursively.
func (s *Schema) projectionKeys(d *TypeDescriptor) []ProjectionKey {
	keys := make([]ProjectionKey, 0, len(d.fields))
	for _, f := range d.fields {
		keys = append(keys, ProjectionKey{
			Name:      f.Name,
			Post:      f.post,
			ValueType: s.scalarValueType(f),
		})
	}
	return keys
}

func (s *Schema) scalarValueType(f *FieldDescriptor) reflect.Type {
	t := f.hostType
	if t == nil {
		return nil
	}
	if d, ok := f.TargetType(s); ok {
		if d.Scalar {
			return d.HostType
		}
		return nil
	}
	if _, ok := s.scalars.byHostType(t); ok {
		return t
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return t
	}
	return nil
}
