package symtab

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty/function"
)

type vec struct{ X, Y float64 }

func scale(v vec, k float64) vec {
	return vec{X: v.X * k, Y: v.Y * k}
}

func newGeoTable(t *testing.T) (*Table, *Class) {
	t.Helper()
	tab := NewTable()
	geo := tab.RegisterModule("acme.geo")
	cls := NewClass(reflect.TypeOf(vec{}))
	cls.DefineMethod("scale", scale)
	geo.Define("Vec", cls)
	geo.Define("scale", scale)
	return tab, cls
}

func TestResolve(t *testing.T) {
	tab, cls := newGeoTable(t)

	t.Run("class by dotted name", func(t *testing.T) {
		s, err := tab.Resolve("acme.geo.Vec")
		require.NoError(t, err)
		assert.Same(t, cls, s)
		assert.Equal(t, "acme.geo.Vec", cls.FullName())
	})

	t.Run("method through class", func(t *testing.T) {
		s, err := tab.Resolve("acme.geo.Vec.scale")
		require.NoError(t, err)
		m, ok := s.(*Method)
		require.True(t, ok)
		assert.Equal(t, "acme.geo.Vec.scale", m.FullName())
		assert.Same(t, cls, m.Class())
	})

	t.Run("module-level function", func(t *testing.T) {
		s, err := tab.Resolve("acme.geo.scale")
		require.NoError(t, err)
		fn := reflect.ValueOf(s)
		require.Equal(t, reflect.Func, fn.Kind())
		assert.Equal(t, reflect.ValueOf(scale).Pointer(), fn.Pointer())
	})

	t.Run("resolution is cached by identity", func(t *testing.T) {
		a, err := tab.Resolve("acme.geo.Vec")
		require.NoError(t, err)
		b, err := tab.Resolve("acme.geo.Vec")
		require.NoError(t, err)
		assert.Same(t, a.(*Class), b.(*Class))
	})

	t.Run("builtin function", func(t *testing.T) {
		s, err := tab.Resolve("builtins.upper")
		require.NoError(t, err)
		_, ok := s.(function.Function)
		assert.True(t, ok)
	})
}

func TestResolveErrors(t *testing.T) {
	tab, _ := newGeoTable(t)

	t.Run("empty name", func(t *testing.T) {
		_, err := tab.Resolve("")
		assert.Error(t, err)
	})

	t.Run("empty segment", func(t *testing.T) {
		_, err := tab.Resolve("acme..Vec")
		assert.ErrorContains(t, err, "malformed")
	})

	t.Run("no module portion", func(t *testing.T) {
		// Every leading segment is capitalized, so nothing is left to play
		// the module role.
		_, err := tab.Resolve("Vec.scale")
		assert.ErrorContains(t, err, "no importable module portion")
	})

	t.Run("unknown module", func(t *testing.T) {
		_, err := tab.Resolve("acme.phys.Vec")
		var nf *ModuleNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "acme.phys", nf.Module)
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := tab.Resolve("acme.geo.Vec.rotate")
		var nf *AttrNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "acme.geo.Vec", nf.Symbol)
		assert.Equal(t, "rotate", nf.Attr)
	})
}

func TestNameOf(t *testing.T) {
	tab, cls := newGeoTable(t)

	name, ok := tab.NameOf(cls)
	require.True(t, ok)
	assert.Equal(t, "acme.geo.Vec", name)

	name, ok = tab.NameOf(scale)
	require.True(t, ok)
	assert.Equal(t, "acme.geo.scale", name)

	_, ok = tab.NameOf(vec{})
	assert.False(t, ok)
	_, ok = tab.NameOf(nil)
	assert.False(t, ok)
}

func TestRegisterModuleIdempotent(t *testing.T) {
	tab := NewTable()
	a := tab.RegisterModule("acme.geo")
	b := tab.RegisterModule("acme.geo")
	assert.Same(t, a, b)

	m, ok := tab.Module("acme.geo")
	require.True(t, ok)
	assert.Same(t, a, m)
	_, ok = tab.Module("acme.phys")
	assert.False(t, ok)
}

func TestMethodBinding(t *testing.T) {
	_, cls := newGeoTable(t)
	m, ok := cls.Attr("scale")
	require.True(t, ok)
	method := m.(*Method)

	assert.False(t, method.IsBound())
	assert.Nil(t, method.Receiver())

	bound := method.Bind(vec{X: 1, Y: 2})
	assert.True(t, bound.IsBound())
	assert.Equal(t, vec{X: 1, Y: 2}, bound.Receiver())

	// Binding copies; the class-level handle stays unbound.
	assert.False(t, method.IsBound())
	assert.Equal(t, method.FullName(), bound.FullName())
}

func TestBuiltinFunctions(t *testing.T) {
	tab := NewTable()
	fns := tab.BuiltinFunctions()
	for _, name := range []string{"upper", "lower", "strlen", "max", "min"} {
		_, ok := fns[name]
		assert.True(t, ok, "missing builtin %q", name)
	}

	// The returned map is a copy.
	delete(fns, "upper")
	_, err := tab.Resolve("builtins.upper")
	assert.NoError(t, err)
}
