package executor

import (
	"fmt"
	"math"
	"strconv"

	"github.com/renholm/typegraph/internal/language"
	"github.com/renholm/typegraph/internal/schema"
)

// coerceVariables coerces the request's variable values against the
// operation's variable definitions. Wire kinds are normalized first (JSON
// numbers arrive as float64), then registered scalars run their Convert
// translators, so a variable declared as ID reaches generators as the
// scalar's host value. Missing values fall back to declared defaults;
// missing non-null variables fail the request.
func coerceVariables(s *schema.Schema, op *language.OperationDefinition, values map[string]any) (map[string]any, error) {
	coerced := make(map[string]any, len(op.VariableDefinitions))
	for _, vd := range op.VariableDefinitions {
		v, ok := values[vd.Variable]
		if !ok {
			if vd.DefaultValue == nil {
				if vd.Type.NonNull {
					return nil, fmt.Errorf("variable $%s of required type %s was not provided", vd.Variable, vd.Type.String())
				}
				continue
			}
			// Defaults are literals; they contain no variable references.
			v = astValue(nil, vd.DefaultValue)
		}
		cv, err := coerceValue(s, v, vd.Type)
		if err != nil {
			return nil, fmt.Errorf("variable $%s: %w", vd.Variable, err)
		}
		coerced[vd.Variable] = cv
	}
	return coerced, nil
}

// coerceValue coerces one value to the declared type, unwrapping list
// wrappers. A single value provided for a list type becomes a list of one.
func coerceValue(s *schema.Schema, v any, t *language.Type) (any, error) {
	if v == nil {
		if t.NonNull {
			return nil, fmt.Errorf("null provided for non-null type %s", t.String())
		}
		return nil, nil
	}
	if t.Elem != nil {
		items, ok := v.([]any)
		if !ok {
			items = []any{v}
		}
		out := make([]any, len(items))
		for i, item := range items {
			cv, err := coerceValue(s, item, t.Elem)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	}
	return coerceNamed(s, v, t.NamedType)
}

func coerceNamed(s *schema.Schema, v any, name string) (any, error) {
	switch name {
	case "String":
		if sv, ok := v.(string); ok {
			return sv, nil
		}
		return nil, fmt.Errorf("cannot coerce %T to String", v)
	case "Boolean":
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("cannot coerce %T to Boolean", v)
	case "Float":
		return wireValue(v, schema.KindFloat)
	}
	st, ok := s.Scalar(name)
	if !ok {
		// Entity or undeclared type names pass through untouched.
		return v, nil
	}
	wire, err := wireValue(v, st.Kind)
	if err != nil {
		return nil, err
	}
	return st.Convert(wire)
}

// wireValue normalizes a decoded value onto the wire representation a
// scalar kind's Convert function expects.
func wireValue(v any, kind schema.ScalarKind) (any, error) {
	switch kind {
	case schema.KindString:
		if sv, ok := v.(string); ok {
			return sv, nil
		}
	case schema.KindInteger:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case float64:
			if n == math.Trunc(n) {
				return int64(n), nil
			}
		}
	case schema.KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case int:
			return float64(n), nil
		}
	case schema.KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %T to %s", v, kind)
}

// astValue converts a request-document value into its raw wire Go value:
// string, int64, float64, bool, nil, []any or map[string]any. Variable
// references resolve against the already-coerced variable values; literal
// argument values stay in wire form, and translating them into scalar host
// values is the generator author's business via the schema registry.
func astValue(vars map[string]any, v *language.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case language.Variable:
		return vars[v.Raw]
	case language.IntValue:
		i, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return nil
		}
		return i
	case language.FloatValue:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return nil
		}
		return f
	case language.StringValue, language.BlockValue, language.EnumValue:
		return v.Raw
	case language.BooleanValue:
		return v.Raw == "true"
	case language.NullValue:
		return nil
	case language.ListValue:
		out := make([]any, 0, len(v.Children))
		for _, c := range v.Children {
			out = append(out, astValue(vars, c.Value))
		}
		return out
	case language.ObjectValue:
		out := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			out[c.Name] = astValue(vars, c.Value)
		}
		return out
	}
	return nil
}

// fieldArguments collects a field's arguments as raw wire values.
func fieldArguments(st *state, args language.ArgumentList) map[string]any {
	out := make(map[string]any, len(args))
	for _, a := range args {
		out[a.Name] = astValue(st.variables, a.Value)
	}
	return out
}
