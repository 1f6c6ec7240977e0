package schema

import "errors"

// Build-time failure classes. Everything here is fatal to schema
// construction and surfaces synchronously from the mutating call or from
// Complete; nothing is retried at request time.
var (
	// ErrDuplicate reports a second registration under an existing key:
	// a host type, a field name within a type, a query name, or a scalar
	// wire name.
	ErrDuplicate = errors.New("duplicate registration")

	// ErrNotFound reports a lookup of a type that was never registered.
	ErrNotFound = errors.New("not found")

	// ErrInvalidShape reports a scalar type declared with fields or a
	// non-scalar type declared with none, detected at Complete.
	ErrInvalidShape = errors.New("invalid type shape")

	// ErrMalformedSelector reports a property-derived field whose selector
	// is not a direct member access on the entity parameter.
	ErrMalformedSelector = errors.New("malformed field selector")

	// ErrCompleted reports mutation after Complete, or Complete twice.
	ErrCompleted = errors.New("schema already completed")
)
