package schema

import (
	"fmt"
	"math"
	"reflect"

	"github.com/google/uuid"
)

// ScalarKind classifies the wire representation of a scalar value.
type ScalarKind int

const (
	KindString ScalarKind = iota
	KindInteger
	KindFloat
	KindBoolean
)

func (k ScalarKind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindBoolean:
		return "Boolean"
	}
	return fmt.Sprintf("ScalarKind(%d)", int(k))
}

// ScalarType maps a named wire scalar onto a host Go type. Convert
// translates the raw wire value (string, int64, float64 or bool, depending
// on Kind) into the host value. Entries are immutable once registered.
type ScalarType struct {
	Name     string
	Kind     ScalarKind
	HostType reflect.Type
	Convert  func(any) (any, error)
}

// scalarRegistry holds the scalar translators for one schema. Lookups are
// linear scans; they run at schema-definition and argument-coercion time,
// not per row.
type scalarRegistry struct {
	entries []*ScalarType
}

func (r *scalarRegistry) add(st *ScalarType) error {
	for _, e := range r.entries {
		if e.Name == st.Name {
			return fmt.Errorf("scalar %q: %w", st.Name, ErrDuplicate)
		}
	}
	r.entries = append(r.entries, st)
	return nil
}

func (r *scalarRegistry) byName(name string) (*ScalarType, bool) {
	for _, e := range r.entries {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

func (r *scalarRegistry) byHostType(t reflect.Type) (*ScalarType, bool) {
	for _, e := range r.entries {
		if e.HostType == t {
			return e, true
		}
	}
	return nil, false
}

// infoTypes exposes the registered scalars as introspection content.
// Completion folds these into the schema's own type listing.
func (r *scalarRegistry) infoTypes() []*TypeInfo {
	out := make([]*TypeInfo, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, &TypeInfo{Name: e.Name, Kind: "SCALAR"})
	}
	return out
}

// defaultScalars seeds every new schema: a UUID-parsing string scalar, a
// float32-narrowing float scalar and an int32-narrowing integer scalar.
func defaultScalars() []*ScalarType {
	return []*ScalarType{
		{
			Name:     "ID",
			Kind:     KindString,
			HostType: reflect.TypeFor[uuid.UUID](),
			Convert: func(raw any) (any, error) {
				s, ok := raw.(string)
				if !ok {
					return nil, fmt.Errorf("scalar ID: expected string, got %T", raw)
				}
				return uuid.Parse(s)
			},
		},
		{
			Name:     "Float32",
			Kind:     KindFloat,
			HostType: reflect.TypeFor[float32](),
			Convert: func(raw any) (any, error) {
				f, ok := raw.(float64)
				if !ok {
					return nil, fmt.Errorf("scalar Float32: expected float, got %T", raw)
				}
				return float32(f), nil
			},
		},
		{
			Name:     "Int",
			Kind:     KindInteger,
			HostType: reflect.TypeFor[int32](),
			Convert: func(raw any) (any, error) {
				i, ok := raw.(int64)
				if !ok {
					return nil, fmt.Errorf("scalar Int: expected integer, got %T", raw)
				}
				if i > math.MaxInt32 || i < math.MinInt32 {
					return nil, fmt.Errorf("scalar Int: value %d out of range", i)
				}
				return int32(i), nil
			},
		},
	}
}

// AddString registers a named string scalar translated into T.
func AddString[T any](s *Schema, name string, convert func(string) (T, error)) error {
	return addScalar[T](s, name, KindString, func(raw any) (any, error) {
		v, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("scalar %s: expected string, got %T", name, raw)
		}
		return convert(v)
	})
}

// AddInteger registers a named integer scalar translated into T.
func AddInteger[T any](s *Schema, name string, convert func(int64) (T, error)) error {
	return addScalar[T](s, name, KindInteger, func(raw any) (any, error) {
		v, ok := raw.(int64)
		if !ok {
			return nil, fmt.Errorf("scalar %s: expected integer, got %T", name, raw)
		}
		return convert(v)
	})
}

// AddFloat registers a named float scalar translated into T.
func AddFloat[T any](s *Schema, name string, convert func(float64) (T, error)) error {
	return addScalar[T](s, name, KindFloat, func(raw any) (any, error) {
		v, ok := raw.(float64)
		if !ok {
			return nil, fmt.Errorf("scalar %s: expected float, got %T", name, raw)
		}
		return convert(v)
	})
}

// AddBoolean registers a named boolean scalar translated into T.
func AddBoolean[T any](s *Schema, name string, convert func(bool) (T, error)) error {
	return addScalar[T](s, name, KindBoolean, func(raw any) (any, error) {
		v, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("scalar %s: expected boolean, got %T", name, raw)
		}
		return convert(v)
	})
}

func addScalar[T any](s *Schema, name string, kind ScalarKind, convert func(any) (any, error)) error {
	if s.completed {
		return fmt.Errorf("add scalar %q: %w", name, ErrCompleted)
	}
	return s.scalars.add(&ScalarType{
		Name:     name,
		Kind:     kind,
		HostType: reflect.TypeFor[T](),
		Convert:  convert,
	})
}
