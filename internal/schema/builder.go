package schema

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/renholm/typegraph/internal/expr"
)

// TypeBuilder is the fluent declaration surface for one entity type. It is
// a thin, stateless view over a (schema, descriptor) pair: the generic
// parameter exists for caller ergonomics, while the schema stores the
// erased descriptor alongside every other type.
type TypeBuilder[TEntity any] struct {
	schema *Schema
	desc   *TypeDescriptor
}

// Descriptor returns the erased descriptor this builder populates.
func (b *TypeBuilder[TEntity]) Descriptor() *TypeDescriptor { return b.desc }

// EntityParam is the parameter every field expression on this type must
// reference for the entity instance.
func (b *TypeBuilder[TEntity]) EntityParam() *expr.Param { return b.desc.entityParam }

// ContextParam is the owning schema's canonical context parameter.
func (b *TypeBuilder[TEntity]) ContextParam() *expr.Param { return b.schema.ctxParam }

// SetDescription sets the type's description and returns the builder.
func (b *TypeBuilder[TEntity]) SetDescription(desc string) *TypeBuilder[TEntity] {
	b.desc.Description = desc
	return b
}

// AddField declares a field whose expression is generated per request from
// the supplied arguments. Two fields with the same name on one type fail.
func (b *TypeBuilder[TEntity]) AddField(name string, gen Generator) error {
	return b.addPre(&FieldDescriptor{Name: name, gen: gen})
}

// AddFieldExpr declares a field computed by a fixed expression, wrapped as
// a zero-argument generator.
func (b *TypeBuilder[TEntity]) AddFieldExpr(name string, e expr.Expr) error {
	return b.addPre(&FieldDescriptor{
		Name:     name,
		hostType: expr.TypeOf(e),
		gen:      func(map[string]any) (expr.Expr, error) { return e, nil },
	})
}

// AddFieldOf declares a field derived from a member-access expression on
// the entity parameter. The field name is the camel-cased member name; the
// selector must be exactly entity.Member with no further composition, since
// name derivation has no other source.
func (b *TypeBuilder[TEntity]) AddFieldOf(selector expr.Expr) error {
	m, ok := selector.(*expr.Member)
	if !ok || m.Target != expr.Expr(b.desc.entityParam) {
		return fmt.Errorf("type %s: selector must be a direct member access on the entity parameter: %w",
			b.desc.Name, ErrMalformedSelector)
	}
	sf, ok := b.desc.HostType.FieldByName(m.Name)
	if !ok {
		return fmt.Errorf("type %s: selector names unknown member %q: %w",
			b.desc.Name, m.Name, ErrMalformedSelector)
	}
	return b.addPre(&FieldDescriptor{
		Name:     camelCase(m.Name),
		hostType: sf.Type,
		gen:      func(map[string]any) (expr.Expr, error) { return m, nil },
	})
}

// AddAllFields declares one derived field per publicly readable member of
// the entity's host type.
func (b *TypeBuilder[TEntity]) AddAllFields() error {
	t := b.desc.HostType
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("type %s: AddAllFields requires a struct host type, got %s", b.desc.Name, t.Kind())
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		if err := b.AddFieldOf(expr.Prop(b.desc.entityParam, sf.Name)); err != nil {
			return err
		}
	}
	return nil
}

// AddPostField declares a field computed by a zero-argument function with
// no dependency on the context or the entity instance. It is evaluated
// after the underlying query materializes results and never appears inside
// the composed query expression.
func (b *TypeBuilder[TEntity]) AddPostField(name string, fn func() any) error {
	return b.add(&FieldDescriptor{Name: name, post: true, postResolve: fn})
}

func (b *TypeBuilder[TEntity]) addPre(f *FieldDescriptor) error {
	if f.gen == nil {
		return fmt.Errorf("field %s.%s: nil generator", b.desc.Name, f.Name)
	}
	return b.add(f)
}

func (b *TypeBuilder[TEntity]) add(f *FieldDescriptor) error {
	if b.schema.completed {
		return fmt.Errorf("field %s.%s: %w", b.desc.Name, f.Name, ErrCompleted)
	}
	return b.desc.addField(f)
}

// camelCase derives a wire field name from a host member name. Fully
// uppercase members (ID, URL) lower entirely; otherwise only the leading
// rune is lowered.
func camelCase(name string) string {
	if name == strings.ToUpper(name) {
		return strings.ToLower(name)
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}
