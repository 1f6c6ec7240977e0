// Package executor serves parsed request documents against a completed
// schema. Per request it opens a fresh backing context through the schema's
// context factory, composes the named query's expression with the selected
// field expressions into one tree over the canonical context parameter, has
// the tree evaluated, and materializes projection rows into response
// values, resolving post fields and nested selections afterwards.
package executor

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/renholm/typegraph/internal/eventbus"
	"github.com/renholm/typegraph/internal/events"
	"github.com/renholm/typegraph/internal/expr"
	"github.com/renholm/typegraph/internal/language"
	"github.com/renholm/typegraph/internal/schema"
)

// Executor executes request documents against one completed schema. It is
// stateless across requests and safe for concurrent use.
type Executor struct {
	schema *schema.Schema
}

// NewExecutor creates an executor over a completed schema.
func NewExecutor(s *schema.Schema) *Executor {
	return &Executor{schema: s}
}

// state holds per-request execution state.
type state struct {
	ctx       context.Context
	schema    *schema.Schema
	document  *language.QueryDocument
	variables map[string]any
	store     any
	errors    []GraphQLError
}

// ExecuteRequest runs one operation of the given document. Only query
// operations are supported.
func (e *Executor) ExecuteRequest(ctx context.Context, doc *language.QueryDocument, operationName string, variables map[string]any) *ExecutionResult {
	op := getOperation(doc, operationName)
	if op == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	}
	if op.Operation != language.Query {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("%s operations are not supported", op.Operation)}}}
	}
	coerced, err := coerceVariables(e.schema, op, variables)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	st := &state{
		ctx:       ctx,
		schema:    e.schema,
		document:  doc,
		variables: coerced,
		store:     e.schema.NewContext(),
	}

	data := make(map[string]any)
	for _, f := range collectFields(st, "Query", op.SelectionSet) {
		name := responseName(f)
		v, err := st.executeQueryField(f)
		if err != nil {
			st.errors = append(st.errors, GraphQLError{Message: err.Error(), Path: []any{name}})
			data[name] = nil
			continue
		}
		data[name] = v
	}
	return &ExecutionResult{Data: data, Errors: st.errors}
}

func getOperation(doc *language.QueryDocument, name string) *language.OperationDefinition {
	if op := doc.Operations.ForName(name); op != nil {
		return op
	}
	if name == "" && len(doc.Operations) == 1 {
		return doc.Operations[0]
	}
	return nil
}

func (st *state) executeQueryField(f *language.Field) (any, error) {
	q, ok := st.schema.FindQuery(f.Name)
	if !ok {
		return nil, fmt.Errorf("unknown query %q", f.Name)
	}
	args := fieldArguments(st, f.Arguments)
	root, err := q.Generate(args)
	if err != nil {
		return nil, err
	}
	env := (*expr.Env)(nil).Bind(st.schema.ContextParam(), st.store)

	target, haveTarget := q.TargetType(st.schema)

	switch q.Mode {
	case schema.ResolveModified:
		if !haveTarget {
			return nil, fmt.Errorf("query %q targets an unregistered type", q.Name)
		}
		// The execution layer may constrain a filterable sequence before
		// evaluation; offset/first windowing composes into the tree.
		root, err = applyWindow(root, args)
		if err != nil {
			return nil, err
		}
		fields := collectFields(st, target.Name, f.SelectionSet)
		pexpr, err := st.composeProjection(target, root, fields)
		if err != nil {
			return nil, err
		}
		v, err := st.evalStore(q.Name, pexpr, env)
		if err != nil {
			return nil, err
		}
		rows, ok := v.([]expr.Record)
		if !ok {
			return nil, fmt.Errorf("query %q did not evaluate to a projected sequence", q.Name)
		}
		out := make([]any, 0, len(rows))
		for _, rec := range rows {
			row, ok := rec.(*projectedRow)
			if !ok {
				return nil, fmt.Errorf("query %q produced a foreign record %T", q.Name, rec)
			}
			m, err := st.materializeRow(target, row, fields)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil

	case schema.ResolveUnmodified:
		v, err := st.evalStore(q.Name, root, env)
		if err != nil {
			return nil, err
		}
		if !haveTarget {
			return v, nil
		}
		return st.completeValue(target, v, f.SelectionSet)
	}
	return nil, fmt.Errorf("query %q has unknown resolution mode %d", q.Name, q.Mode)
}

// applyWindow wraps a sequence expression with request-supplied offset and
// first arguments, when present.
func applyWindow(src expr.Expr, args map[string]any) (expr.Expr, error) {
	offset, err := windowArg(args, "offset", 0)
	if err != nil {
		return nil, err
	}
	count, err := windowArg(args, "first", -1)
	if err != nil {
		return nil, err
	}
	if offset == 0 && count < 0 {
		return src, nil
	}
	return expr.Take(src, offset, count), nil
}

// windowArg reads an integer window argument, accepting both the wire form
// (int64 literals) and the Int scalar's host form (int32 from a coerced
// variable).
func windowArg(args map[string]any, name string, fallback int) (int, error) {
	v, ok := args[name]
	if !ok {
		return fallback, nil
	}
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case int:
		return n, nil
	}
	return 0, fmt.Errorf("argument %s: expected integer, got %T", name, v)
}

// composeProjection stitches the selected pre-field expressions into one
// projection over the query's sequence. Each field expression is rewritten
// from the type's entity parameter onto the projection's item parameter by
// token identity; the shared context parameter is left in place, keeping
// the result a single tree over one context reference. Keys are the
// selections' response names, so aliased selections of one field with
// different arguments project independently.
func (st *state) composeProjection(d *schema.TypeDescriptor, source expr.Expr, fields []*language.Field) (expr.Expr, error) {
	proj := d.Projection()
	item := expr.NewParam("row", d.HostType)
	keys := make([]expr.ProjectKey, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		fd, ok := d.Field(f.Name)
		if !ok {
			return nil, fmt.Errorf("type %s has no field %q", d.Name, f.Name)
		}
		name := responseName(f)
		if fd.IsPost() || seen[name] {
			continue
		}
		seen[name] = true
		fe, err := fd.Generate(fieldArguments(st, f.Arguments))
		if err != nil {
			return nil, err
		}
		keys = append(keys, expr.ProjectKey{
			Name:  name,
			Value: expr.Substitute(fe, d.EntityParam(), item),
		})
	}
	return &expr.Project{
		Source: source,
		Item:   item,
		Keys:   keys,
		Make:   func() expr.Writer { return &projectedRow{row: proj.NewRow()} },
	}, nil
}

// projectedRow pairs a projection row with alias-keyed values for field
// selections whose response name is not a declared key. Names matching the
// projection's shape write through to the row.
type projectedRow struct {
	row     *schema.Row
	aliased map[string]any
}

func (r *projectedRow) Set(name string, v any) error {
	if err := r.row.Set(name, v); err == nil {
		return nil
	}
	if r.aliased == nil {
		r.aliased = make(map[string]any)
	}
	r.aliased[name] = v
	return nil
}

func (r *projectedRow) Member(name string) (any, bool) {
	if v, ok := r.aliased[name]; ok {
		return v, true
	}
	return r.row.Member(name)
}

// materializeRow turns one projected row into a response value: pre keys
// are read off the row, post fields resolve now and are written back, and
// nested entity values recurse through their own selections.
func (st *state) materializeRow(d *schema.TypeDescriptor, row *projectedRow, fields []*language.Field) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		fd, ok := d.Field(f.Name)
		if !ok {
			return nil, fmt.Errorf("type %s has no field %q", d.Name, f.Name)
		}
		name := responseName(f)
		if fd.IsPost() {
			v := fd.ResolvePost()
			if err := row.Set(fd.Name, v); err != nil {
				return nil, err
			}
			out[name] = v
			continue
		}
		raw, _ := row.Member(name)
		v, err := st.completeFieldValue(fd, raw, f.SelectionSet)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func (st *state) completeFieldValue(fd *schema.FieldDescriptor, v any, sels language.SelectionSet) (any, error) {
	nested, ok := fd.TargetType(st.schema)
	if !ok || nested.Scalar {
		return v, nil
	}
	return st.completeValue(nested, v, sels)
}

// completeValue resolves a raw entity value (single or sequence) through
// the entity type's own field expressions, binding the same store that the
// parent query evaluated against.
func (st *state) completeValue(d *schema.TypeDescriptor, v any, sels language.SelectionSet) (any, error) {
	if d.Scalar || v == nil {
		return v, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	if rv.Kind() == reflect.Slice {
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			cv, err := st.completeValue(d, rv.Index(i).Interface(), sels)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	}

	fields := collectFields(st, d.Name, sels)
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		fd, ok := d.Field(f.Name)
		if !ok {
			return nil, fmt.Errorf("type %s has no field %q", d.Name, f.Name)
		}
		name := responseName(f)
		if fd.IsPost() {
			out[name] = fd.ResolvePost()
			continue
		}
		fe, err := fd.Generate(fieldArguments(st, f.Arguments))
		if err != nil {
			return nil, err
		}
		env := (*expr.Env)(nil).
			Bind(st.schema.ContextParam(), st.store).
			Bind(d.EntityParam(), v)
		raw, err := expr.Eval(fe, env)
		if err != nil {
			return nil, err
		}
		fv, err := st.completeFieldValue(fd, raw, f.SelectionSet)
		if err != nil {
			return nil, err
		}
		out[name] = fv
	}
	return out, nil
}

// evalStore hands a composed expression to the backing context and reports
// the evaluation on the event bus.
func (st *state) evalStore(query string, e expr.Expr, env *expr.Env) (any, error) {
	start := time.Now()
	eventbus.Publish(st.ctx, events.StoreEvalStart{Query: query})
	v, err := expr.Eval(e, env)
	rows := 0
	if recs, ok := v.([]expr.Record); ok {
		rows = len(recs)
	}
	eventbus.Publish(st.ctx, events.StoreEvalFinish{
		Query:    query,
		Rows:     rows,
		Err:      err,
		Duration: time.Since(start),
	})
	return v, err
}
