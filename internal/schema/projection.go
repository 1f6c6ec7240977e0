package schema

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// projectionSerial makes every synthesized projection identity unique per
// type-build, so repeated completions of differently-shaped types never
// collide.
var projectionSerial atomic.Uint64

// ProjectionKey describes one member of a synthesized row shape. ValueType
// is the scalar host type when the field's target is scalar, or nil for an
// opaque nested entity value resolved recursively by the materializer.
type ProjectionKey struct {
	Name      string
	Post      bool
	ValueType reflect.Type
}

// Projection is the runtime row shape synthesized for an entity type at
// completion. It records, in declared field order, which keys are pre vs.
// post and their declared value kind. Pre keys are populated inside the
// composed query expression; post keys are written onto rows afterwards.
type Projection struct {
	name  string
	keys  []ProjectionKey
	index map[string]int
	pre   int          // count of pre keys
	host  reflect.Type // set only for scalar types: the host type itself
}

func newProjection(typeName string, keys []ProjectionKey) *Projection {
	p := &Projection{
		name:  fmt.Sprintf("%sProjection#%d", typeName, projectionSerial.Add(1)),
		keys:  keys,
		index: make(map[string]int, len(keys)),
	}
	for i, k := range keys {
		p.index[k.Name] = i
		if !k.Post {
			p.pre++
		}
	}
	return p
}

// newScalarProjection covers scalar types, whose projection is the scalar's
// own host type; no shape is synthesized.
func newScalarProjection(typeName string, host reflect.Type) *Projection {
	return &Projection{
		name:  fmt.Sprintf("%sProjection#%d", typeName, projectionSerial.Add(1)),
		index: map[string]int{},
		host:  host,
	}
}

// Name is the projection's unique identity.
func (p *Projection) Name() string { return p.name }

// ScalarHostType returns the host type for a scalar projection, or nil for
// a synthesized row shape.
func (p *Projection) ScalarHostType() reflect.Type { return p.host }

// Keys returns the projection members in declared field order.
func (p *Projection) Keys() []ProjectionKey { return p.keys }

// PreKeys returns only the members produced inside the query expression.
func (p *Projection) PreKeys() []ProjectionKey {
	out := make([]ProjectionKey, 0, p.pre)
	for _, k := range p.keys {
		if !k.Post {
			out = append(out, k)
		}
	}
	return out
}

// NewRow allocates an empty row of this shape.
func (p *Projection) NewRow() *Row {
	return &Row{proj: p, values: make([]any, len(p.keys))}
}

// Row is one materialized result of a projection. It implements both
// expr.Record (reads during nested resolution) and expr.Writer (writes
// during projection evaluation and post-field resolution).
type Row struct {
	proj   *Projection
	values []any
}

// Projection returns the shape this row was allocated from.
func (r *Row) Projection() *Projection { return r.proj }

// Member reads a key by name.
func (r *Row) Member(name string) (any, bool) {
	i, ok := r.proj.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Set writes a key by name. Unknown keys are rejected rather than grown;
// the shape is fixed at completion.
func (r *Row) Set(name string, v any) error {
	i, ok := r.proj.index[name]
	if !ok {
		return fmt.Errorf("projection %s has no key %q", r.proj.name, name)
	}
	r.values[i] = v
	return nil
}
