package objgraph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alpha struct{}
type beta struct{}

func newTestType(prototype any) *RegisteredType {
	return &RegisteredType{
		GoType: reflect.TypeOf(prototype),
		FromJSON: func(m map[string]any, opts Options) (any, error) {
			return prototype, nil
		},
	}
}

func TestRegistryRegister(t *testing.T) {
	t.Run("registers and resolves", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("test.Alpha", newTestType(alpha{}), false))

		assert.True(t, r.IsRegistered("test.Alpha"))
		assert.False(t, r.IsRegistered("test.Beta"))

		entry := r.Lookup("test.Alpha")
		require.NotNil(t, entry)
		assert.Equal(t, reflect.TypeOf(alpha{}), entry.GoType)
		assert.Nil(t, r.Lookup("test.Beta"))
	})

	t.Run("duplicate without override fails", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("test.Alpha", newTestType(alpha{}), false))

		err := r.Register("test.Alpha", newTestType(beta{}), false)
		require.Error(t, err)
		var dup *DuplicateRegistrationError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "test.Alpha", dup.TypeName)
		assert.Equal(t, reflect.TypeOf(alpha{}), dup.Existing)

		// Original binding is untouched.
		assert.Equal(t, reflect.TypeOf(alpha{}), r.Lookup("test.Alpha").GoType)
	})

	t.Run("override wins", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("test.Alpha", newTestType(alpha{}), false))
		require.NoError(t, r.Register("test.Alpha", newTestType(beta{}), true))

		assert.Equal(t, reflect.TypeOf(beta{}), r.Lookup("test.Alpha").GoType)
	})

	t.Run("aliases map to one class", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("test.Alpha", newTestType(alpha{}), false))
		require.NoError(t, r.Register("test.AlphaAlias", newTestType(alpha{}), false))

		assert.Equal(t, r.Lookup("test.Alpha").GoType, r.Lookup("test.AlphaAlias").GoType)
	})
}

func TestRegistryTypes(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("c", newTestType(alpha{}), false))
	require.NoError(t, r.Register("a", newTestType(beta{}), false))
	require.NoError(t, r.Register("b", newTestType(alpha{}), false))

	var names []string
	for _, entry := range r.Types() {
		names = append(names, entry.TypeName)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names, "registration order is preserved")

	// Overriding keeps the original position.
	require.NoError(t, r.Register("a", newTestType(alpha{}), true))
	names = names[:0]
	for _, entry := range r.Types() {
		names = append(names, entry.TypeName)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestMustRegisterPanicsOnConflict(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("test.Alpha", newTestType(alpha{}))
	assert.Panics(t, func() {
		r.MustRegister("test.Alpha", newTestType(beta{}))
	})
}

func TestErrorMessages(t *testing.T) {
	err := &TypeNotRegisteredError{TypeName: "nope"}
	assert.Contains(t, err.Error(), `"nope"`)
	assert.True(t, errors.Is(ErrEmptyTuple, ErrEmptyTuple))
}
