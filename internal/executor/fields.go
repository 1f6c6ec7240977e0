package executor

import (
	"github.com/renholm/typegraph/internal/language"
)

// collectFields flattens a selection set into fields in request order,
// resolving fragment spreads and inline fragments against the given type
// name and honoring @skip/@include.
func collectFields(st *state, typeName string, sels language.SelectionSet) []*language.Field {
	var out []*language.Field
	visited := make(map[string]bool)
	collectFieldsImpl(st, typeName, sels, &out, visited)
	return out
}

func collectFieldsImpl(st *state, typeName string, sels language.SelectionSet, out *[]*language.Field, visited map[string]bool) {
	for _, sel := range sels {
		switch s := sel.(type) {
		case *language.Field:
			if !includeNode(st, s.Directives) {
				continue
			}
			*out = append(*out, s)

		case *language.InlineFragment:
			if !includeNode(st, s.Directives) {
				continue
			}
			if s.TypeCondition != "" && s.TypeCondition != typeName {
				continue
			}
			collectFieldsImpl(st, typeName, s.SelectionSet, out, visited)

		case *language.FragmentSpread:
			if !includeNode(st, s.Directives) || visited[s.Name] {
				continue
			}
			visited[s.Name] = true
			def := st.document.Fragments.ForName(s.Name)
			if def == nil {
				continue
			}
			if def.TypeCondition != "" && def.TypeCondition != typeName {
				continue
			}
			if !includeNode(st, def.Directives) {
				continue
			}
			collectFieldsImpl(st, typeName, def.SelectionSet, out, visited)
		}
	}
}

func includeNode(st *state, directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveIf(st, skip); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveIf(st, include); ok && !v {
			return false
		}
	}
	return true
}

func directiveIf(st *state, d *language.Directive) (bool, bool) {
	for _, arg := range d.Arguments {
		if arg.Name == "if" {
			b, ok := astValue(st.variables, arg.Value).(bool)
			return b, ok
		}
	}
	return false, false
}

func responseName(f *language.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}
