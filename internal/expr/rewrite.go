package expr

// Substitute returns a copy of e with every node identical to from replaced
// by to. Matching is pointer identity, so substituting a *Param rebinds
// exactly the expressions that closed over that token. Subtrees without a
// match are returned unchanged, not copied.
func Substitute(e, from, to Expr) Expr {
	if e == from {
		return to
	}
	switch n := e.(type) {
	case *Param, *Constant:
		return e

	case *Member:
		target := Substitute(n.Target, from, to)
		if target == n.Target {
			return n
		}
		return &Member{Target: target, Name: n.Name}

	case *Call:
		args := n.Args
		changed := false
		for i, arg := range n.Args {
			sub := Substitute(arg, from, to)
			if sub != arg && !changed {
				args = append([]Expr(nil), n.Args...)
				changed = true
			}
			if changed {
				args[i] = sub
			}
		}
		if !changed {
			return n
		}
		return &Call{fn: n.fn, Args: args}

	case *Slice:
		source := Substitute(n.Source, from, to)
		if source == n.Source {
			return n
		}
		return &Slice{Source: source, Offset: n.Offset, Count: n.Count}

	case *Project:
		source := Substitute(n.Source, from, to)
		keys := n.Keys
		changed := source != n.Source
		for i, key := range n.Keys {
			sub := Substitute(key.Value, from, to)
			if sub != key.Value {
				if &keys[0] == &n.Keys[0] {
					keys = append([]ProjectKey(nil), n.Keys...)
				}
				keys[i] = ProjectKey{Name: key.Name, Value: sub}
				changed = true
			}
		}
		if !changed {
			return n
		}
		return &Project{Source: source, Item: n.Item, Keys: keys, Make: n.Make}

	default:
		return e
	}
}
