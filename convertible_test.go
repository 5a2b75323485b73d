package objgraph

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldKey(t *testing.T) {
	type sample struct {
		Plain   string
		Tagged  string `json:"renamed"`
		Options string `json:"opts,omitempty"`
		Skipped string `json:"-"`
		ID      string
	}
	st := reflect.TypeOf(sample{})

	field := func(name string) reflect.StructField {
		f, ok := st.FieldByName(name)
		require.True(t, ok)
		return f
	}

	assert.Equal(t, "plain", FieldKey(field("Plain")))
	assert.Equal(t, "renamed", FieldKey(field("Tagged")))
	assert.Equal(t, "opts", FieldKey(field("Options")))
	assert.Equal(t, "", FieldKey(field("Skipped")))
	assert.Equal(t, "iD", FieldKey(field("ID")))
}

func TestNewStructType(t *testing.T) {
	type inner struct {
		Label string `json:"label"`
	}
	type outer struct {
		Count  int
		Score  float64
		Names  []string
		Lookup map[string]int
		Nested inner `json:"nested"`
		hidden string
	}

	rt := NewStructType(outer{})
	assert.Equal(t, reflect.TypeOf(outer{}), rt.GoType)

	t.Run("fills fields from the wire mapping", func(t *testing.T) {
		v, err := rt.FromJSON(map[string]any{
			TypeNameKey: "test.Outer",
			"count":     int64(3),
			"score":     2.5,
			"names":     []any{"a", "b"},
			"lookup":    map[string]any{"k": int64(7)},
			"hidden":    "ignored",
		}, nil)
		require.NoError(t, err)

		got, ok := v.(*outer)
		require.True(t, ok)
		assert.Empty(t, got.hidden)
		assert.Equal(t, 3, got.Count)
		assert.Equal(t, 2.5, got.Score)
		assert.Equal(t, []string{"a", "b"}, got.Names)
		assert.Equal(t, map[string]int{"k": 7}, got.Lookup)
	})

	t.Run("missing keys keep zero values", func(t *testing.T) {
		v, err := rt.FromJSON(map[string]any{TypeNameKey: "test.Outer"}, nil)
		require.NoError(t, err)
		assert.Equal(t, &outer{}, v)
	})

	t.Run("mismatched shapes fail", func(t *testing.T) {
		_, err := rt.FromJSON(map[string]any{
			TypeNameKey: "test.Outer",
			"names":     "not-a-list",
		}, nil)
		assert.ErrorContains(t, err, `field "names"`)
	})

	t.Run("pointer prototypes decode to the element type", func(t *testing.T) {
		prt := NewStructType(&outer{})
		assert.Equal(t, reflect.TypeOf(outer{}), prt.GoType)
	})
}

func TestToJSONDict(t *testing.T) {
	m, err := ToJSONDict("test.Thing", map[string]any{
		"n":    1,
		"pair": Tuple{1, 2},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		TypeNameKey: "test.Thing",
		"n":         1,
		"pair":      []any{TupleMarker, 1, 2},
	}, m)
}
