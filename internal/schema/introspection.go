package schema

import (
	"reflect"

	"github.com/renholm/typegraph/internal/expr"
)

// Introspection is ordinary schema content: the meta types below are
// declared through the same TypeBuilder contract as user types during
// Complete, so the introspection surface can never drift from the actual
// schema shape.

// SchemaInfo is the queryable self-description returned by __schema.
type SchemaInfo struct {
	Types []*TypeInfo
}

// TypeInfo describes one schema type, including the scalar registry's
// entries.
type TypeInfo struct {
	Name        string
	Description string
	Kind        string
	Fields      []*FieldInfo
}

// FieldInfo describes one field of a type.
type FieldInfo struct {
	Name string
	Type string
}

// declareIntrospection runs inside Complete, after shape validation and
// before the projection sweep: it attaches the type-name meta field to
// every previously-declared non-scalar type, declares the meta types via
// the ordinary builder so they participate in the same sweep, and registers
// the reserved queries.
func declareIntrospection(s *Schema) error {
	// User types first; the meta types pick up their own __typename below.
	for _, d := range s.types {
		if err := attachTypename(d); err != nil {
			return err
		}
	}

	fb, err := AddType[FieldInfo](s)
	if err != nil {
		return err
	}
	if err := fb.AddAllFields(); err != nil {
		return err
	}
	tb, err := AddType[TypeInfo](s)
	if err != nil {
		return err
	}
	if err := tb.AddAllFields(); err != nil {
		return err
	}
	sb, err := AddType[SchemaInfo](s)
	if err != nil {
		return err
	}
	if err := sb.AddAllFields(); err != nil {
		return err
	}
	for _, b := range []*TypeDescriptor{fb.desc, tb.desc, sb.desc} {
		if err := attachTypename(b); err != nil {
			return err
		}
	}

	err = s.addQuery(&QueryDescriptor{
		Name:     QuerySchema,
		Mode:     ResolveUnmodified,
		hostType: reflect.TypeFor[SchemaInfo](),
		gen: func(map[string]any) (expr.Expr, error) {
			return expr.Const(s.introspect()), nil
		},
	}, true)
	if err != nil {
		return err
	}
	return s.addQuery(&QueryDescriptor{
		Name:     QueryType,
		Mode:     ResolveUnmodified,
		hostType: reflect.TypeFor[TypeInfo](),
		gen: func(args map[string]any) (expr.Expr, error) {
			name, _ := args["name"].(string)
			// A miss is an empty result, not an error.
			return expr.Const(s.typeInfo(name)), nil
		},
	}, true)
}

// attachTypename adds the post field exposing the type's own name. The
// value is fixed per descriptor and never enters the composed query
// expression.
func attachTypename(d *TypeDescriptor) error {
	if d.Scalar {
		return nil
	}
	if _, exists := d.Field("__typename"); exists {
		return nil
	}
	name := d.Name
	return d.addField(&FieldDescriptor{
		Name:        "__typename",
		hostType:    reflect.TypeFor[string](),
		post:        true,
		postResolve: func() any { return name },
	})
}

// introspect snapshots the schema as queryable content: one TypeInfo per
// scalar registry entry plus one per declared type.
func (s *Schema) introspect() *SchemaInfo {
	info := &SchemaInfo{}
	info.Types = append(info.Types, s.scalars.infoTypes()...)
	for _, d := range s.types {
		info.Types = append(info.Types, s.describeType(d))
	}
	return info
}

func (s *Schema) typeInfo(name string) *TypeInfo {
	if st, ok := s.scalars.byName(name); ok {
		return &TypeInfo{Name: st.Name, Kind: "SCALAR"}
	}
	if d, ok := s.TypeByName(name); ok {
		return s.describeType(d)
	}
	return nil
}

func (s *Schema) describeType(d *TypeDescriptor) *TypeInfo {
	kind := "OBJECT"
	if d.Scalar {
		kind = "SCALAR"
	}
	ti := &TypeInfo{Name: d.Name, Description: d.Description, Kind: kind}
	for _, f := range d.fields {
		ti.Fields = append(ti.Fields, &FieldInfo{Name: f.Name, Type: s.fieldTypeName(f)})
	}
	return ti
}

// fieldTypeName resolves a field's declared type to a wire type name, best
// effort: a declared entity type, a registered scalar, or a builtin kind.
func (s *Schema) fieldTypeName(f *FieldDescriptor) string {
	if d, ok := f.TargetType(s); ok {
		return d.Name
	}
	t := f.hostType
	if t == nil {
		return ""
	}
	if st, ok := s.scalars.byHostType(t); ok {
		return st.Name
	}
	switch t.Kind() {
	case reflect.String:
		return "String"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "Int"
	case reflect.Float32, reflect.Float64:
		return "Float"
	case reflect.Bool:
		return "Boolean"
	}
	return t.String()
}
