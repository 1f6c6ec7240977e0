package schema

import (
	"fmt"
	"reflect"

	"github.com/renholm/typegraph/internal/expr"
)

// ResolutionMode states how a named query's expression is consumed.
type ResolutionMode int

const (
	// ResolveModified yields a filterable sequence the execution layer may
	// further constrain before evaluation, e.g. with request-supplied
	// pagination.
	ResolveModified ResolutionMode = iota

	// ResolveUnmodified yields a single value evaluated exactly as
	// generated.
	ResolveUnmodified
)

// Reserved query names registered by Complete. User registrations under
// these names collide and fail.
const (
	QuerySchema = "__schema"
	QueryType   = "__type"
)

// QueryDescriptor represents one named, externally invocable query.
// Immutable after registration.
type QueryDescriptor struct {
	Name string
	Mode ResolutionMode

	hostType reflect.Type
	gen      Generator
}

// Generate invokes the query's arguments-to-expression generator.
func (q *QueryDescriptor) Generate(args map[string]any) (expr.Expr, error) {
	return q.gen(args)
}

// TargetType resolves the query's declared entity type against s.
func (q *QueryDescriptor) TargetType(s *Schema) (*TypeDescriptor, bool) {
	t := q.hostType
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	d, ok := s.byHost[t]
	return d, ok
}

// AddQuery registers a named query producing a filterable sequence of
// TEntity values. The name must be unique within the schema.
func AddQuery[TEntity any](s *Schema, name string, gen Generator) error {
	return s.addQuery(&QueryDescriptor{
		Name:     name,
		Mode:     ResolveModified,
		hostType: reflect.TypeFor[TEntity](),
		gen:      gen,
	}, false)
}

// AddUnmodifiedQuery registers a named query producing a single value
// evaluated as-is.
func AddUnmodifiedQuery[TEntity any](s *Schema, name string, gen Generator) error {
	return s.addQuery(&QueryDescriptor{
		Name:     name,
		Mode:     ResolveUnmodified,
		hostType: reflect.TypeFor[TEntity](),
		gen:      gen,
	}, false)
}

// FindQuery looks up a query by exact, case-sensitive name. A missing name
// is an ordinary miss, not an error.
func (s *Schema) FindQuery(name string) (*QueryDescriptor, bool) {
	for _, q := range s.queries {
		if q.Name == name {
			return q, true
		}
	}
	return nil, false
}

// Queries returns all registered queries in registration order.
func (s *Schema) Queries() []*QueryDescriptor { return s.queries }

func (s *Schema) addQuery(q *QueryDescriptor, internal bool) error {
	if s.completed {
		return fmt.Errorf("query %q: %w", q.Name, ErrCompleted)
	}
	if !internal && (q.Name == QuerySchema || q.Name == QueryType) {
		return fmt.Errorf("query %q is reserved: %w", q.Name, ErrDuplicate)
	}
	if _, exists := s.FindQuery(q.Name); exists {
		return fmt.Errorf("query %q: %w", q.Name, ErrDuplicate)
	}
	s.queries = append(s.queries, q)
	return nil
}
