package schema

import (
	"reflect"
	"testing"

	"github.com/renholm/typegraph/internal/expr"
	"github.com/stretchr/testify/require"
)

func TestAddFieldOf(t *testing.T) {
	s := newTestSchema()
	b, err := AddType[testUser](s)
	require.NoError(t, err)

	t.Run("derives name and type from the member", func(t *testing.T) {
		require.NoError(t, b.AddFieldOf(expr.Prop(b.EntityParam(), "Name")))
		f, ok := b.Descriptor().Field("name")
		require.True(t, ok)
		require.Equal(t, reflect.TypeFor[string](), f.ValueType())
		require.False(t, f.IsPost())
	})

	t.Run("all-caps member lowers entirely", func(t *testing.T) {
		require.NoError(t, b.AddFieldOf(expr.Prop(b.EntityParam(), "ID")))
		_, ok := b.Descriptor().Field("id")
		require.True(t, ok)
	})

	t.Run("generated expression evaluates against the entity", func(t *testing.T) {
		f, ok := b.Descriptor().Field("name")
		require.True(t, ok)
		e, err := f.Generate(nil)
		require.NoError(t, err)
		var env *expr.Env
		v, err := expr.Eval(e, env.Bind(b.EntityParam(), testUser{ID: 7, Name: "ada"}))
		require.NoError(t, err)
		require.Equal(t, "ada", v)
	})

	t.Run("foreign parameter is rejected", func(t *testing.T) {
		other := expr.NewParam("entity", reflect.TypeFor[testUser]())
		err := b.AddFieldOf(expr.Prop(other, "Name"))
		require.ErrorIs(t, err, ErrMalformedSelector)
	})

	t.Run("non-member expression is rejected", func(t *testing.T) {
		err := b.AddFieldOf(expr.Const("Name"))
		require.ErrorIs(t, err, ErrMalformedSelector)
	})

	t.Run("unknown member is rejected", func(t *testing.T) {
		err := b.AddFieldOf(expr.Prop(b.EntityParam(), "Missing"))
		require.ErrorIs(t, err, ErrMalformedSelector)
	})
}

func TestAddFieldDuplicate(t *testing.T) {
	s := newTestSchema()
	b, err := AddType[testUser](s)
	require.NoError(t, err)
	require.NoError(t, b.AddFieldOf(expr.Prop(b.EntityParam(), "Name")))
	require.ErrorIs(t, b.AddFieldExpr("name", expr.Const("x")), ErrDuplicate)
}

func TestAddAllFields(t *testing.T) {
	s := newTestSchema()
	b, err := AddType[testUser](s)
	require.NoError(t, err)
	require.NoError(t, b.AddAllFields())

	fields := b.Descriptor().Fields()
	require.Len(t, fields, 2)
	require.Equal(t, "id", fields[0].Name)
	require.Equal(t, "name", fields[1].Name)
}

func TestAddPostField(t *testing.T) {
	s := newTestSchema()
	b, err := AddType[testUser](s)
	require.NoError(t, err)
	require.NoError(t, b.AddPostField("kind", func() any { return "user" }))

	f, ok := b.Descriptor().Field("kind")
	require.True(t, ok)
	require.True(t, f.IsPost())
	require.Equal(t, "user", f.ResolvePost())

	_, err = f.Generate(nil)
	require.ErrorContains(t, err, "resolves post-query")
}

func TestFieldTargetType(t *testing.T) {
	s := newTestSchema()
	users, err := AddType[testUser](s)
	require.NoError(t, err)
	require.NoError(t, users.AddAllFields())
	require.NoError(t, users.AddFieldExpr("friends", expr.Const([]testUser{})))

	f, ok := users.Descriptor().Field("friends")
	require.True(t, ok)
	d, ok := f.TargetType(s)
	require.True(t, ok)
	require.Equal(t, "testUser", d.Name)

	name, _ := users.Descriptor().Field("name")
	_, ok = name.TargetType(s)
	require.False(t, ok)
}
