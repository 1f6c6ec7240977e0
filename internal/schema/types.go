package schema

import (
	"fmt"
	"reflect"

	"github.com/renholm/typegraph/internal/expr"
)

// Generator produces the deferred expression for one field or query
// invocation. The returned expression has shape (context, entity) → value
// for fields and (context) → value for queries, and must reference the
// owning schema's canonical context parameter.
type Generator func(args map[string]any) (expr.Expr, error)

// TypeDescriptor represents one schema type, keyed by the host Go type it
// describes. At most one descriptor exists per host type. Field order is
// declaration order. The projection stays nil until Complete freezes the
// schema.
type TypeDescriptor struct {
	HostType    reflect.Type
	Name        string
	Description string
	Scalar      bool

	fields      []*FieldDescriptor
	entityParam *expr.Param
	projection  *Projection
}

// EntityParam is the per-type entity parameter. Every field expression on
// this type closes over this exact token so expressions declared by
// different callers compose against the same row.
func (d *TypeDescriptor) EntityParam() *expr.Param { return d.entityParam }

// Fields returns the declared fields in declaration order.
func (d *TypeDescriptor) Fields() []*FieldDescriptor { return d.fields }

// Field looks up a field by wire name.
func (d *TypeDescriptor) Field(name string) (*FieldDescriptor, bool) {
	for _, f := range d.fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Projection returns the synthesized row shape, or nil before Complete.
func (d *TypeDescriptor) Projection() *Projection { return d.projection }

func (d *TypeDescriptor) addField(f *FieldDescriptor) error {
	if _, exists := d.Field(f.Name); exists {
		return fmt.Errorf("field %s.%s: %w", d.Name, f.Name, ErrDuplicate)
	}
	f.owner = d
	d.fields = append(d.fields, f)
	return nil
}

// FieldDescriptor represents one named, typed attribute of an entity type.
// Pre fields carry a deferred-expression generator and appear as projection
// keys; post fields carry a nilary resolver evaluated after the query
// materializes, and never enter the composed expression.
type FieldDescriptor struct {
	Name string

	hostType    reflect.Type // declared value type when statically known
	gen         Generator
	post        bool
	postResolve func() any
	owner       *TypeDescriptor
}

// IsPost reports whether the field resolves after result materialization.
func (f *FieldDescriptor) IsPost() bool { return f.post }

// ValueType is the field's declared host value type, or nil when it can
// only be known by evaluating the expression.
func (f *FieldDescriptor) ValueType() reflect.Type { return f.hostType }

// Generate invokes the field's deferred-expression generator. Post fields
// have no expression and reject generation.
func (f *FieldDescriptor) Generate(args map[string]any) (expr.Expr, error) {
	if f.post {
		return nil, fmt.Errorf("field %s.%s resolves post-query, it has no expression", f.owner.Name, f.Name)
	}
	return f.gen(args)
}

// ResolvePost computes a post field's value.
func (f *FieldDescriptor) ResolvePost() any { return f.postResolve() }

// TargetType resolves the field's declared type to an entity descriptor in
// s, unwrapping slices and pointers. It returns false for scalar-valued and
// statically untyped fields.
func (f *FieldDescriptor) TargetType(s *Schema) (*TypeDescriptor, bool) {
	t := f.hostType
	if t == nil {
		return nil, false
	}
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	d, ok := s.byHost[t]
	return d, ok
}
