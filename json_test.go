package objgraph_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objgraph/objgraph"
	"github.com/objgraph/objgraph/symtab"
)

type point struct {
	X int
	Y int
}

func (p *point) ToJSON(opts objgraph.Options) (map[string]any, error) {
	return objgraph.ToJSONDict("geotest.Point", map[string]any{
		"x": p.X,
		"y": p.Y,
	}, opts)
}

func double(x int) int { return 2 * x }

var (
	pointClass  = symtab.NewClass(reflect.TypeOf(point{}))
	scaleMethod *symtab.Method
)

func init() {
	objgraph.MustRegister("geotest.Point", objgraph.NewStructType(point{}))
	scaleMethod = pointClass.DefineMethod("scale", func(p point, k int) point {
		return point{X: p.X * k, Y: p.Y * k}
	})

	mod := symtab.RegisterModule("geotest")
	mod.Define("Point", pointClass)
	mod.Define("PointType", reflect.TypeOf(point{}))
	mod.Define("double", double)
}

func TestToJSONPrimitives(t *testing.T) {
	for _, v := range []any{nil, true, 42, 3.5, "hello"} {
		jv, err := objgraph.ToJSON(v, nil)
		require.NoError(t, err)
		assert.Equal(t, v, jv)

		back, err := objgraph.FromJSON(jv)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}

func TestTupleEncoding(t *testing.T) {
	t.Run("round trip keeps the tuple/list distinction", func(t *testing.T) {
		jv, err := objgraph.ToJSON(objgraph.Tuple{1, "a", objgraph.Tuple{2}}, nil)
		require.NoError(t, err)
		assert.Equal(t, []any{
			objgraph.TupleMarker, 1, "a",
			[]any{objgraph.TupleMarker, 2},
		}, jv)

		back, err := objgraph.FromJSON(jv)
		require.NoError(t, err)
		assert.Equal(t, objgraph.Tuple{1, "a", objgraph.Tuple{2}}, back)
	})

	t.Run("bare marker is rejected", func(t *testing.T) {
		_, err := objgraph.FromJSON([]any{objgraph.TupleMarker})
		assert.ErrorIs(t, err, objgraph.ErrEmptyTuple)
	})

	t.Run("marker past position zero is data", func(t *testing.T) {
		back, err := objgraph.FromJSON([]any{"a", objgraph.TupleMarker})
		require.NoError(t, err)
		assert.Equal(t, []any{"a", objgraph.TupleMarker}, back)
	})
}

func TestContainerRoundTrip(t *testing.T) {
	v := map[string]any{
		"items": []any{1, 2, 3},
		"meta":  map[string]any{"tags": []any{"x"}},
	}
	jv, err := objgraph.ToJSON(v, nil)
	require.NoError(t, err)

	back, err := objgraph.FromJSON(jv)
	require.NoError(t, err)
	if diff := cmp.Diff(v, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertibleRoundTrip(t *testing.T) {
	jv, err := objgraph.ToJSON(&point{X: 1, Y: 2}, nil)
	require.NoError(t, err)
	m, ok := jv.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "geotest.Point", m[objgraph.TypeNameKey])

	back, err := objgraph.FromJSON(jv)
	require.NoError(t, err)
	assert.Equal(t, &point{X: 1, Y: 2}, back)
}

func TestFromJSONDiscriminatorErrors(t *testing.T) {
	t.Run("unregistered type name", func(t *testing.T) {
		_, err := objgraph.FromJSON(map[string]any{objgraph.TypeNameKey: "geotest.Nope"})
		var nr *objgraph.TypeNotRegisteredError
		require.ErrorAs(t, err, &nr)
		assert.Equal(t, "geotest.Nope", nr.TypeName)
	})

	t.Run("non-string discriminator", func(t *testing.T) {
		_, err := objgraph.FromJSON(map[string]any{objgraph.TypeNameKey: 7})
		assert.ErrorContains(t, err, "must be a string")
	})

	t.Run("missing entry name", func(t *testing.T) {
		_, err := objgraph.FromJSON(map[string]any{objgraph.TypeNameKey: "type"})
		assert.ErrorContains(t, err, "missing its name")
	})
}

func TestClassHandleSerialization(t *testing.T) {
	t.Run("class serializes by name and resolves back", func(t *testing.T) {
		jv, err := objgraph.ToJSON(pointClass, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			objgraph.TypeNameKey: "type",
			"name":               "geotest.Point",
		}, jv)

		back, err := objgraph.FromJSON(jv)
		require.NoError(t, err)
		assert.Same(t, pointClass, back.(*symtab.Class))
	})

	t.Run("reflect type handles work the same way", func(t *testing.T) {
		jv, err := objgraph.ToJSON(reflect.TypeOf(point{}), nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			objgraph.TypeNameKey: "type",
			"name":               "geotest.PointType",
		}, jv)

		back, err := objgraph.FromJSON(jv)
		require.NoError(t, err)
		assert.Equal(t, reflect.TypeOf(point{}), back)
	})

	t.Run("unreachable type is refused", func(t *testing.T) {
		_, err := objgraph.ToJSON(reflect.TypeOf(struct{ A int }{}), nil)
		var local *objgraph.LocalSymbolError
		assert.ErrorAs(t, err, &local)
	})
}

func TestFunctionSerialization(t *testing.T) {
	t.Run("registered function serializes by name", func(t *testing.T) {
		jv, err := objgraph.ToJSON(double, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			objgraph.TypeNameKey: "function",
			"name":               "geotest.double",
		}, jv)

		back, err := objgraph.FromJSON(jv)
		require.NoError(t, err)
		assert.Equal(t,
			reflect.ValueOf(double).Pointer(),
			reflect.ValueOf(back).Pointer())
	})

	t.Run("unregistered function is refused", func(t *testing.T) {
		_, err := objgraph.ToJSON(func() {}, nil)
		var local *objgraph.LocalSymbolError
		assert.ErrorAs(t, err, &local)
	})
}

func TestMethodSerialization(t *testing.T) {
	t.Run("class-level method serializes by name", func(t *testing.T) {
		jv, err := objgraph.ToJSON(scaleMethod, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			objgraph.TypeNameKey: "method",
			"name":               "geotest.Point.scale",
		}, jv)

		back, err := objgraph.FromJSON(jv)
		require.NoError(t, err)
		assert.Same(t, scaleMethod, back.(*symtab.Method))
	})

	t.Run("instance-bound method is refused", func(t *testing.T) {
		_, err := objgraph.ToJSON(scaleMethod.Bind(point{X: 1}), nil)
		assert.ErrorContains(t, err, "instance-bound")
	})
}

func TestTypeConverterFallback(t *testing.T) {
	codec := objgraph.NewCodec(objgraph.DefaultRegistry, symtab.Default)
	codec.TypeConverter = func(rt reflect.Type) func(any) (any, error) {
		if rt != reflect.TypeOf(time.Time{}) {
			return nil
		}
		return func(v any) (any, error) {
			return v.(time.Time).UTC().Format(time.RFC3339), nil
		}
	}

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	jv, err := codec.ToJSON(ts, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T12:00:00Z", jv)

	t.Run("declined types still fail", func(t *testing.T) {
		_, err := codec.ToJSON(make(chan int), nil)
		var uc *objgraph.UnconvertibleValueError
		assert.ErrorAs(t, err, &uc)
	})
}

func TestUnconvertibleValue(t *testing.T) {
	_, err := objgraph.ToJSON(make(chan int), nil)
	var uc *objgraph.UnconvertibleValueError
	assert.ErrorAs(t, err, &uc)
}

func TestMarshalUnmarshal(t *testing.T) {
	v := map[string]any{
		"count": 5,
		"ratio": 1.5,
		"pair":  objgraph.Tuple{1, 2},
		"point": &point{X: 3, Y: 4},
	}
	data, err := objgraph.Marshal(v, nil)
	require.NoError(t, err)

	back, err := objgraph.Unmarshal(data)
	require.NoError(t, err)

	m, ok := back.(map[string]any)
	require.True(t, ok)
	// Whole numbers survive text encoding as int64, not float64.
	assert.Equal(t, int64(5), m["count"])
	assert.Equal(t, 1.5, m["ratio"])
	assert.Equal(t, objgraph.Tuple{int64(1), int64(2)}, m["pair"])
	assert.Equal(t, &point{X: 3, Y: 4}, m["point"])
}
