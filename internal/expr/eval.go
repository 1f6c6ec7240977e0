package expr

import (
	"fmt"
	"reflect"
)

// Env is an immutable chain of parameter bindings. The zero value (nil)
// is the empty environment.
type Env struct {
	parent *Env
	param  *Param
	value  any
}

// Bind returns a new environment extending e with p bound to v.
func (e *Env) Bind(p *Param, v any) *Env {
	return &Env{parent: e, param: p, value: v}
}

func (e *Env) lookup(p *Param) (any, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.param == p {
			return cur.value, true
		}
	}
	return nil, false
}

// Eval computes the value of e under env. Errors from wrapped functions
// propagate unchanged.
func Eval(e Expr, env *Env) (any, error) {
	switch n := e.(type) {
	case *Param:
		v, ok := env.lookup(n)
		if !ok {
			return nil, fmt.Errorf("expr: unbound parameter %q", n.name)
		}
		return v, nil

	case *Constant:
		return n.Value, nil

	case *Member:
		target, err := Eval(n.Target, env)
		if err != nil {
			return nil, err
		}
		return readMember(target, n.Name)

	case *Call:
		ft := n.fn.Type()
		if len(n.Args) != ft.NumIn() {
			return nil, fmt.Errorf("expr: call expects %d operands, got %d", ft.NumIn(), len(n.Args))
		}
		in := make([]reflect.Value, len(n.Args))
		for i, arg := range n.Args {
			v, err := Eval(arg, env)
			if err != nil {
				return nil, err
			}
			if v == nil {
				in[i] = reflect.Zero(ft.In(i))
			} else {
				in[i] = reflect.ValueOf(v)
			}
		}
		out := n.fn.Call(in)
		if len(out) == 0 {
			return nil, nil
		}
		if last := out[len(out)-1]; last.Type() == errorType && !last.IsNil() {
			return nil, last.Interface().(error)
		}
		return out[0].Interface(), nil

	case *Slice:
		src, err := Eval(n.Source, env)
		if err != nil {
			return nil, err
		}
		sv := reflect.ValueOf(src)
		if !sv.IsValid() || sv.Kind() != reflect.Slice {
			return nil, fmt.Errorf("expr: slice over non-sequence %T", src)
		}
		lo := n.Offset
		if lo < 0 {
			lo = 0
		}
		if lo > sv.Len() {
			lo = sv.Len()
		}
		hi := sv.Len()
		if n.Count >= 0 && lo+n.Count < hi {
			hi = lo + n.Count
		}
		return sv.Slice(lo, hi).Interface(), nil

	case *Project:
		src, err := Eval(n.Source, env)
		if err != nil {
			return nil, err
		}
		sv := reflect.ValueOf(src)
		if !sv.IsValid() || (sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array) {
			return nil, fmt.Errorf("expr: project over non-sequence %T", src)
		}
		out := make([]Record, 0, sv.Len())
		for i := 0; i < sv.Len(); i++ {
			itemEnv := env.Bind(n.Item, sv.Index(i).Interface())
			w := n.Make()
			for _, key := range n.Keys {
				v, err := Eval(key.Value, itemEnv)
				if err != nil {
					return nil, err
				}
				if err := w.Set(key.Name, v); err != nil {
					return nil, err
				}
			}
			rec, ok := w.(Record)
			if !ok {
				return nil, fmt.Errorf("expr: projection writer %T is not a record", w)
			}
			out = append(out, rec)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("expr: unknown node %T", e)
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func readMember(target any, name string) (any, error) {
	if target == nil {
		return nil, fmt.Errorf("expr: member %q of nil value", name)
	}
	if rec, ok := target.(Record); ok {
		v, ok := rec.Member(name)
		if !ok {
			return nil, fmt.Errorf("expr: record has no member %q", name)
		}
		return v, nil
	}
	if m, ok := target.(map[string]any); ok {
		v, ok := m[name]
		if !ok {
			return nil, fmt.Errorf("expr: map has no member %q", name)
		}
		return v, nil
	}
	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("expr: member %q of nil value", name)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expr: member %q of non-struct %T", name, target)
	}
	fv := rv.FieldByName(name)
	if !fv.IsValid() {
		return nil, fmt.Errorf("expr: %T has no member %q", target, name)
	}
	return fv.Interface(), nil
}
