// Package schema implements the schema-definition and query-compilation
// core: type and field registration against an open schema, the two-phase
// build (declare, then Complete), synthesis of a projection shape per entity
// type, and registration of named queries whose expressions all share one
// canonical context parameter.
//
// Building runs single-threaded at startup. After Complete the schema is
// immutable and safe for unsynchronized concurrent reads.
package schema

import (
	"fmt"
	"reflect"

	"github.com/renholm/typegraph/internal/expr"
)

// Schema owns the full set of entity types and named queries declared by
// the host application, plus the scalar registry and the context factory
// used to open a fresh backing context per request.
type Schema struct {
	contextFactory func() any
	contextType    reflect.Type
	ctxParam       *expr.Param

	scalars *scalarRegistry
	types   []*TypeDescriptor
	byHost  map[reflect.Type]*TypeDescriptor
	queries []*QueryDescriptor

	completed bool
}

// New creates an open schema over the given backing-context factory and
// seeds the default scalar translators. The factory is invoked once per
// served request by the executor, never by the schema itself.
func New[TContext any](factory func() TContext) *Schema {
	ctxType := reflect.TypeFor[TContext]()
	s := &Schema{
		contextFactory: func() any { return factory() },
		contextType:    ctxType,
		ctxParam:       expr.NewParam("context", ctxType),
		scalars:        &scalarRegistry{},
		byHost:         make(map[reflect.Type]*TypeDescriptor),
	}
	for _, st := range defaultScalars() {
		// Seeding cannot collide; the registry starts empty.
		_ = s.scalars.add(st)
	}
	return s
}

// ContextParam is the canonical context parameter. Every field and query
// expression in this schema must close over this exact token; composition
// substitutes by its pointer identity.
func (s *Schema) ContextParam() *expr.Param { return s.ctxParam }

// ContextType is the host type produced by the context factory.
func (s *Schema) ContextType() reflect.Type { return s.contextType }

// NewContext opens a fresh backing context.
func (s *Schema) NewContext() any { return s.contextFactory() }

// Completed reports whether Complete has run.
func (s *Schema) Completed() bool { return s.completed }

// Scalar looks up a registered scalar by wire name.
func (s *Schema) Scalar(name string) (*ScalarType, bool) { return s.scalars.byName(name) }

// ScalarByHostType looks up a registered scalar by its host Go type.
func (s *Schema) ScalarByHostType(t reflect.Type) (*ScalarType, bool) {
	return s.scalars.byHostType(t)
}

// Types returns all type descriptors in registration order.
func (s *Schema) Types() []*TypeDescriptor { return s.types }

// TypeByHost looks up the descriptor for a host type.
func (s *Schema) TypeByHost(t reflect.Type) (*TypeDescriptor, bool) {
	d, ok := s.byHost[t]
	return d, ok
}

// TypeByName looks up a descriptor by display name.
func (s *Schema) TypeByName(name string) (*TypeDescriptor, bool) {
	for _, d := range s.types {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// AddType declares a non-scalar entity type for the host type TEntity and
// returns a builder for its fields. Registering the same host type twice
// fails.
func AddType[TEntity any](s *Schema) (*TypeBuilder[TEntity], error) {
	d, err := s.addType(reflect.TypeFor[TEntity](), false)
	if err != nil {
		return nil, err
	}
	return &TypeBuilder[TEntity]{schema: s, desc: d}, nil
}

// AddScalarType declares a scalar entity type for TEntity. Scalar types
// carry no fields; Complete rejects any that do.
func AddScalarType[TEntity any](s *Schema) (*TypeBuilder[TEntity], error) {
	d, err := s.addType(reflect.TypeFor[TEntity](), true)
	if err != nil {
		return nil, err
	}
	return &TypeBuilder[TEntity]{schema: s, desc: d}, nil
}

// GetType returns the descriptor previously registered for TEntity.
func GetType[TEntity any](s *Schema) (*TypeDescriptor, error) {
	t := reflect.TypeFor[TEntity]()
	d, ok := s.byHost[t]
	if !ok {
		return nil, fmt.Errorf("type %s: %w", t, ErrNotFound)
	}
	return d, nil
}

func (s *Schema) addType(hostType reflect.Type, scalar bool) (*TypeDescriptor, error) {
	if s.completed {
		return nil, fmt.Errorf("add type %s: %w", hostType, ErrCompleted)
	}
	if _, exists := s.byHost[hostType]; exists {
		return nil, fmt.Errorf("type %s: %w", hostType, ErrDuplicate)
	}
	d := &TypeDescriptor{
		HostType:    hostType,
		Name:        hostType.Name(),
		Scalar:      scalar,
		entityParam: expr.NewParam("entity", hostType),
	}
	s.types = append(s.types, d)
	s.byHost[hostType] = d
	return d, nil
}
