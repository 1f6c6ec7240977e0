package schema

import (
	"fmt"
	"net/netip"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDefaultScalars(t *testing.T) {
	s := newTestSchema()

	t.Run("ID parses UUID strings", func(t *testing.T) {
		st, ok := s.Scalar("ID")
		require.True(t, ok)
		require.Equal(t, KindString, st.Kind)
		require.Equal(t, reflect.TypeFor[uuid.UUID](), st.HostType)

		v, err := st.Convert("7d444840-9dc0-11d1-b245-5ffdce74fad2")
		require.NoError(t, err)
		require.Equal(t, uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"), v)

		_, err = st.Convert("not-a-uuid")
		require.Error(t, err)
		_, err = st.Convert(42)
		require.ErrorContains(t, err, "expected string")
	})

	t.Run("Float32 narrows float input", func(t *testing.T) {
		st, ok := s.Scalar("Float32")
		require.True(t, ok)
		v, err := st.Convert(1.5)
		require.NoError(t, err)
		require.Equal(t, float32(1.5), v)

		_, err = st.Convert("1.5")
		require.ErrorContains(t, err, "expected float")
	})

	t.Run("Int narrows with range check", func(t *testing.T) {
		st, ok := s.Scalar("Int")
		require.True(t, ok)
		v, err := st.Convert(int64(12))
		require.NoError(t, err)
		require.Equal(t, int32(12), v)

		_, err = st.Convert(int64(1 << 40))
		require.ErrorContains(t, err, "out of range")
		_, err = st.Convert(int64(-1 << 40))
		require.ErrorContains(t, err, "out of range")
	})

	t.Run("host type lookup", func(t *testing.T) {
		st, ok := s.ScalarByHostType(reflect.TypeFor[int32]())
		require.True(t, ok)
		require.Equal(t, "Int", st.Name)

		_, ok = s.ScalarByHostType(reflect.TypeFor[complex128]())
		require.False(t, ok)
	})
}

func TestAddScalar(t *testing.T) {
	t.Run("registers a string scalar", func(t *testing.T) {
		s := newTestSchema()
		err := AddString(s, "IPAddr", func(v string) (netip.Addr, error) {
			return netip.ParseAddr(v)
		})
		require.NoError(t, err)

		st, ok := s.Scalar("IPAddr")
		require.True(t, ok)
		require.Equal(t, reflect.TypeFor[netip.Addr](), st.HostType)

		v, err := st.Convert("10.0.0.1")
		require.NoError(t, err)
		require.Equal(t, netip.MustParseAddr("10.0.0.1"), v)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		s := newTestSchema()
		err := AddInteger(s, "Int", func(v int64) (int64, error) { return v, nil })
		require.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("conversion errors surface", func(t *testing.T) {
		s := newTestSchema()
		require.NoError(t, AddBoolean(s, "Strict", func(v bool) (bool, error) {
			if !v {
				return false, fmt.Errorf("must be true")
			}
			return v, nil
		}))
		st, _ := s.Scalar("Strict")
		_, err := st.Convert(false)
		require.ErrorContains(t, err, "must be true")
		_, err = st.Convert("yes")
		require.ErrorContains(t, err, "expected boolean")
	})

	t.Run("registered scalars join introspection", func(t *testing.T) {
		s := newTestSchema()
		require.NoError(t, AddFloat(s, "Ratio", func(v float64) (float64, error) { return v, nil }))
		names := map[string]bool{}
		for _, ti := range s.scalars.infoTypes() {
			names[ti.Name] = true
			require.Equal(t, "SCALAR", ti.Kind)
		}
		require.True(t, names["ID"])
		require.True(t, names["Ratio"])
	})
}
