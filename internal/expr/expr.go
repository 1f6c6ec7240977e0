// Package expr implements the deferred expression trees that schema fields
// and queries compile into. An expression is a description of a computation
// over a backing data context; nothing is executed until Eval walks the tree
// with an environment binding its parameters.
//
// Parameters are compared by pointer identity, never by name. A schema hands
// out one canonical context *Param, and every expression built against that
// schema closes over the same pointer so that independently declared
// expressions compose into a single valid tree.
package expr

import (
	"fmt"
	"reflect"
)

// Expr is a node in a deferred expression tree.
type Expr interface {
	node()
}

// Param is a named placeholder bound to a value at evaluation time.
// Identity is the pointer; two params with equal names are distinct.
type Param struct {
	name string
	typ  reflect.Type
}

// NewParam allocates a fresh parameter token. t may be nil when the bound
// value's type is not statically known.
func NewParam(name string, t reflect.Type) *Param {
	return &Param{name: name, typ: t}
}

func (p *Param) Name() string       { return p.name }
func (p *Param) Type() reflect.Type { return p.typ }
func (p *Param) node()              {}

// Constant wraps a fixed value.
type Constant struct {
	Value any
}

// Const returns a constant expression holding v.
func Const(v any) *Constant { return &Constant{Value: v} }

func (c *Constant) node() {}

// Member reads the named member of the target value: a Record key, a
// map[string]any key, or an exported struct field, in that order.
type Member struct {
	Target Expr
	Name   string
}

// Prop returns a member-access expression target.name.
func Prop(target Expr, name string) *Member {
	return &Member{Target: target, Name: name}
}

func (m *Member) node() {}

// Call applies a Go function to the evaluated operand expressions.
// If the function's last result is an error, a non-nil error aborts
// evaluation and propagates unchanged.
type Call struct {
	fn   reflect.Value
	Args []Expr
}

// Apply wraps fn, which must be a func value, over the given operands.
func Apply(fn any, args ...Expr) *Call {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("expr: Apply requires a func, got %T", fn))
	}
	return &Call{fn: v, Args: args}
}

func (c *Call) Func() reflect.Value { return c.fn }
func (c *Call) node()               {}

// Slice constrains a sequence-producing expression to a window.
// Count < 0 means "to the end".
type Slice struct {
	Source Expr
	Offset int
	Count  int
}

// Take returns a windowed view over a sequence expression.
func Take(source Expr, offset, count int) *Slice {
	return &Slice{Source: source, Offset: offset, Count: count}
}

func (s *Slice) node() {}

// ProjectKey is one named output of a Project node.
type ProjectKey struct {
	Name  string
	Value Expr
}

// Project maps a sequence expression into records. For every element of
// Source it binds Item, evaluates each key expression, and writes the
// results into a fresh record obtained from Make.
type Project struct {
	Source Expr
	Item   *Param
	Keys   []ProjectKey
	Make   func() Writer
}

func (p *Project) node() {}

// Record is a value addressable by member name.
type Record interface {
	Member(name string) (any, bool)
}

// Writer receives projected key values.
type Writer interface {
	Set(name string, v any) error
}

// TypeOf reports the statically known result type of e, or nil when the
// type cannot be determined without evaluating.
func TypeOf(e Expr) reflect.Type {
	switch n := e.(type) {
	case *Param:
		return n.typ
	case *Constant:
		return reflect.TypeOf(n.Value)
	case *Member:
		tt := TypeOf(n.Target)
		if tt == nil {
			return nil
		}
		for tt.Kind() == reflect.Pointer {
			tt = tt.Elem()
		}
		if tt.Kind() != reflect.Struct {
			return nil
		}
		if f, ok := tt.FieldByName(n.Name); ok {
			return f.Type
		}
		return nil
	case *Call:
		if n.fn.Type().NumOut() > 0 {
			return n.fn.Type().Out(0)
		}
		return nil
	case *Slice:
		return TypeOf(n.Source)
	default:
		return nil
	}
}
