package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/renholm/typegraph/internal/expr"
	"github.com/renholm/typegraph/internal/language"
	"github.com/renholm/typegraph/internal/schema"
	"github.com/stretchr/testify/require"
)

type execDB struct {
	Users  []execUser
	Orders []execOrder
}

type execUser struct {
	ID   int32
	Name string
}

type execOrder struct {
	ID     int32
	UserID int32
	Total  float32
}

func testData() *execDB {
	return &execDB{
		Users: []execUser{
			{ID: 1, Name: "ada"},
			{ID: 2, Name: "grace"},
			{ID: 3, Name: "linus"},
		},
		Orders: []execOrder{
			{ID: 10, UserID: 1, Total: 9.5},
			{ID: 11, UserID: 1, Total: 3.25},
			{ID: 12, UserID: 2, Total: 42},
		},
	}
}

func newExecSchema(t *testing.T) *schema.Schema {
	t.Helper()
	db := testData()
	s := schema.New(func() *execDB { return db })
	ctx := s.ContextParam()

	users, err := schema.AddType[execUser](s)
	require.NoError(t, err)
	require.NoError(t, users.AddAllFields())
	require.NoError(t, users.AddField("greeting", func(args map[string]any) (expr.Expr, error) {
		prefix, _ := args["prefix"].(string)
		return expr.Apply(func(u execUser) string { return prefix + " " + u.Name }, users.EntityParam()), nil
	}))
	require.NoError(t, users.AddFieldExpr("orders", expr.Apply(
		func(db *execDB, u execUser) []execOrder {
			var out []execOrder
			for _, o := range db.Orders {
				if o.UserID == u.ID {
					out = append(out, o)
				}
			}
			return out
		},
		ctx, users.EntityParam(),
	)))

	orders, err := schema.AddType[execOrder](s)
	require.NoError(t, err)
	require.NoError(t, orders.AddAllFields())

	require.NoError(t, schema.AddQuery[execUser](s, "users", func(map[string]any) (expr.Expr, error) {
		return expr.Prop(ctx, "Users"), nil
	}))
	require.NoError(t, schema.AddQuery[execOrder](s, "orders", func(map[string]any) (expr.Expr, error) {
		return expr.Prop(ctx, "Orders"), nil
	}))
	require.NoError(t, schema.AddUnmodifiedQuery[int](s, "userCount", func(map[string]any) (expr.Expr, error) {
		return expr.Apply(func(db *execDB) int { return len(db.Users) }, ctx), nil
	}))
	require.NoError(t, schema.AddUnmodifiedQuery[string](s, "argKind", func(args map[string]any) (expr.Expr, error) {
		return expr.Const(fmt.Sprintf("%T", args["v"])), nil
	}))

	require.NoError(t, s.Complete())
	return s
}

func execute(t *testing.T, s *schema.Schema, query string, variables map[string]any) (*ExecutionResult, map[string]any) {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	res := NewExecutor(s).ExecuteRequest(context.Background(), doc, "", variables)
	data, _ := res.Data.(map[string]any)
	return res, data
}

func TestExecuteQuery(t *testing.T) {
	s := newExecSchema(t)

	t.Run("selects declared fields", func(t *testing.T) {
		res, data := execute(t, s, `query { users { id name } }`, nil)
		require.Empty(t, res.Errors)
		want := map[string]any{"users": []any{
			map[string]any{"id": int32(1), "name": "ada"},
			map[string]any{"id": int32(2), "name": "grace"},
			map[string]any{"id": int32(3), "name": "linus"},
		}}
		require.Empty(t, cmp.Diff(want, data))
	})

	t.Run("aliases rename response keys", func(t *testing.T) {
		res, data := execute(t, s, `query { people: users { who: name } }`, nil)
		require.Empty(t, res.Errors)
		people := data["people"].([]any)
		require.Len(t, people, 3)
		require.Equal(t, map[string]any{"who": "ada"}, people[0])
	})

	t.Run("typename resolves after materialization", func(t *testing.T) {
		res, data := execute(t, s, `query { users { __typename name } }`, nil)
		require.Empty(t, res.Errors)
		first := data["users"].([]any)[0].(map[string]any)
		require.Equal(t, "execUser", first["__typename"])
	})

	t.Run("windowing with offset and first", func(t *testing.T) {
		res, data := execute(t, s, `query { users(offset: 1, first: 1) { name } }`, nil)
		require.Empty(t, res.Errors)
		want := map[string]any{"users": []any{map[string]any{"name": "grace"}}}
		require.Empty(t, cmp.Diff(want, data))
	})

	t.Run("window past the end is empty", func(t *testing.T) {
		res, data := execute(t, s, `query { users(offset: 10) { name } }`, nil)
		require.Empty(t, res.Errors)
		require.Empty(t, data["users"])
	})

	t.Run("nested entity selection", func(t *testing.T) {
		res, data := execute(t, s, `query { users(first: 2) { name orders { total } } }`, nil)
		require.Empty(t, res.Errors)
		want := map[string]any{"users": []any{
			map[string]any{"name": "ada", "orders": []any{
				map[string]any{"total": float32(9.5)},
				map[string]any{"total": float32(3.25)},
			}},
			map[string]any{"name": "grace", "orders": []any{
				map[string]any{"total": float32(42)},
			}},
		}}
		require.Empty(t, cmp.Diff(want, data))
	})

	t.Run("unmodified query returns the raw value", func(t *testing.T) {
		res, data := execute(t, s, `query { userCount }`, nil)
		require.Empty(t, res.Errors)
		require.Equal(t, 3, data["userCount"])
	})

	t.Run("unknown query reports a pathed error", func(t *testing.T) {
		res, data := execute(t, s, `query { nobody { id } }`, nil)
		require.Len(t, res.Errors, 1)
		require.Contains(t, res.Errors[0].Message, `unknown query "nobody"`)
		require.Equal(t, []any{"nobody"}, res.Errors[0].Path)
		require.Nil(t, data["nobody"])
	})

	t.Run("aliased selections with different arguments", func(t *testing.T) {
		res, data := execute(t, s, `query { users(first: 1) { hi: greeting(prefix: "Hi") yo: greeting(prefix: "Yo") } }`, nil)
		require.Empty(t, res.Errors)
		first := data["users"].([]any)[0].(map[string]any)
		require.Equal(t, "Hi ada", first["hi"])
		require.Equal(t, "Yo ada", first["yo"])
	})

	t.Run("unknown field fails the query", func(t *testing.T) {
		res, _ := execute(t, s, `query { users { shoeSize } }`, nil)
		require.Len(t, res.Errors, 1)
		require.Contains(t, res.Errors[0].Message, `no field "shoeSize"`)
	})
}

func TestExecuteDirectivesAndFragments(t *testing.T) {
	s := newExecSchema(t)

	t.Run("skip and include honor variables", func(t *testing.T) {
		res, data := execute(t, s, `
			query q($withID: Boolean!) {
				users(first: 1) {
					id @include(if: $withID)
					name @skip(if: $withID)
				}
			}`,
			map[string]any{"withID": true})
		require.Empty(t, res.Errors)
		first := data["users"].([]any)[0].(map[string]any)
		require.Equal(t, int32(1), first["id"])
		require.NotContains(t, first, "name")
	})

	t.Run("named fragment spreads", func(t *testing.T) {
		res, data := execute(t, s, `
			query {
				users(first: 1) { ...userParts }
			}
			fragment userParts on execUser { id name }`, nil)
		require.Empty(t, res.Errors)
		first := data["users"].([]any)[0].(map[string]any)
		require.Equal(t, map[string]any{"id": int32(1), "name": "ada"}, first)
	})

	t.Run("inline fragment with matching condition", func(t *testing.T) {
		res, data := execute(t, s, `query { users(first: 1) { ... on execUser { name } } }`, nil)
		require.Empty(t, res.Errors)
		first := data["users"].([]any)[0].(map[string]any)
		require.Equal(t, "ada", first["name"])
	})
}

func TestVariableCoercion(t *testing.T) {
	s := newExecSchema(t)

	t.Run("integer variable windows the query", func(t *testing.T) {
		// JSON decoding delivers numbers as float64.
		res, data := execute(t, s, `query q($n: Int!) { users(first: $n) { name } }`,
			map[string]any{"n": float64(1)})
		require.Empty(t, res.Errors)
		want := map[string]any{"users": []any{map[string]any{"name": "ada"}}}
		require.Empty(t, cmp.Diff(want, data))
	})

	t.Run("variable default applies", func(t *testing.T) {
		res, data := execute(t, s, `query q($n: Int = 2) { users(first: $n) { name } }`, nil)
		require.Empty(t, res.Errors)
		require.Len(t, data["users"], 2)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		res, _ := execute(t, s, `query q($n: Int!) { users(first: $n) { name } }`, nil)
		require.Len(t, res.Errors, 1)
		require.Contains(t, res.Errors[0].Message, "was not provided")
	})

	t.Run("fractional value rejected for Int", func(t *testing.T) {
		res, _ := execute(t, s, `query q($n: Int!) { users(first: $n) { name } }`,
			map[string]any{"n": 1.5})
		require.Len(t, res.Errors, 1)
		require.Contains(t, res.Errors[0].Message, "cannot coerce")
	})

	t.Run("Int variable reaches the generator as the host type", func(t *testing.T) {
		res, data := execute(t, s, `query q($v: Int!) { argKind(v: $v) }`,
			map[string]any{"v": float64(7)})
		require.Empty(t, res.Errors)
		require.Equal(t, "int32", data["argKind"])
	})

	t.Run("ID variable runs the registry translator", func(t *testing.T) {
		res, data := execute(t, s, `query q($v: ID!) { argKind(v: $v) }`,
			map[string]any{"v": "7d444840-9dc0-11d1-b245-5ffdce74fad2"})
		require.Empty(t, res.Errors)
		require.Equal(t, "uuid.UUID", data["argKind"])
	})

	t.Run("invalid ID fails the request", func(t *testing.T) {
		res, _ := execute(t, s, `query q($v: ID!) { argKind(v: $v) }`,
			map[string]any{"v": "not-a-uuid"})
		require.Len(t, res.Errors, 1)
		require.Contains(t, res.Errors[0].Message, "variable $v")
	})

	t.Run("list variable coerces per item", func(t *testing.T) {
		res, data := execute(t, s, `query q($v: [Int!]!) { argKind(v: $v) }`,
			map[string]any{"v": []any{float64(1), float64(2)}})
		require.Empty(t, res.Errors)
		require.Equal(t, "[]interface {}", data["argKind"])
	})
}

func TestExecuteOperations(t *testing.T) {
	s := newExecSchema(t)

	t.Run("named operation selection", func(t *testing.T) {
		doc, err := language.ParseQuery(`
			query a { userCount }
			query b { users { name } }`)
		require.NoError(t, err)
		res := NewExecutor(s).ExecuteRequest(context.Background(), doc, "a", nil)
		require.Empty(t, res.Errors)
		require.Equal(t, 3, res.Data.(map[string]any)["userCount"])
	})

	t.Run("missing operation", func(t *testing.T) {
		doc, err := language.ParseQuery(`query a { userCount } query b { userCount }`)
		require.NoError(t, err)
		res := NewExecutor(s).ExecuteRequest(context.Background(), doc, "", nil)
		require.Len(t, res.Errors, 1)
		require.Contains(t, res.Errors[0].Message, "operation not found")
	})

	t.Run("mutations are rejected", func(t *testing.T) {
		doc, err := language.ParseQuery(`mutation { userCount }`)
		require.NoError(t, err)
		res := NewExecutor(s).ExecuteRequest(context.Background(), doc, "", nil)
		require.Len(t, res.Errors, 1)
		require.Contains(t, res.Errors[0].Message, "not supported")
	})
}

func TestExecuteIntrospection(t *testing.T) {
	s := newExecSchema(t)

	t.Run("__type by name", func(t *testing.T) {
		res, data := execute(t, s, `query { __type(name: "execUser") { name fields { name type } } }`, nil)
		require.Empty(t, res.Errors)
		ti := data["__type"].(map[string]any)
		require.Equal(t, "execUser", ti["name"])
		fields := ti["fields"].([]any)
		names := map[string]string{}
		for _, f := range fields {
			m := f.(map[string]any)
			names[m["name"].(string)] = m["type"].(string)
		}
		require.Equal(t, "Int", names["id"])
		require.Equal(t, "String", names["name"])
		require.Equal(t, "execOrder", names["orders"])
	})

	t.Run("__schema type listing", func(t *testing.T) {
		res, data := execute(t, s, `query { __schema { types { name kind } } }`, nil)
		require.Empty(t, res.Errors)
		types := data["__schema"].(map[string]any)["types"].([]any)
		names := map[string]string{}
		for _, v := range types {
			m := v.(map[string]any)
			names[m["name"].(string)] = m["kind"].(string)
		}
		require.Equal(t, "OBJECT", names["execUser"])
		require.Equal(t, "OBJECT", names["execOrder"])
		require.Equal(t, "SCALAR", names["ID"])
	})
}
