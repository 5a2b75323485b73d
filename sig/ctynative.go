package sig

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/objgraph/objgraph"
)

// NativeFromCty lowers a cty value to plain Go values: nil, bool, int64,
// float64, string, []any and map[string]any. Whole numbers come back as
// int64. Tuples lower to objgraph.Tuple so the wire protocol keeps the
// tuple/list distinction.
func NativeFromCty(v cty.Value) (any, error) {
	if v == cty.NilVal || v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("sig: cannot lower unknown value")
	}
	t := v.Type()
	switch {
	case t == cty.Bool:
		return v.True(), nil
	case t == cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case t == cty.String:
		return v.AsString(), nil
	case t.IsTupleType():
		out := make(objgraph.Tuple, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			nv, err := NativeFromCty(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}
		return out, nil
	case t.IsListType() || t.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			nv, err := NativeFromCty(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}
		return out, nil
	case t.IsMapType() || t.IsObjectType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			nv, err := NativeFromCty(ev)
			if err != nil {
				return nil, err
			}
			out[kv.AsString()] = nv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("sig: cannot lower %s to a native value", t.FriendlyName())
	}
}

// CtyFromNative lifts plain Go values into cty values. cty values pass
// through; sequences become tuples, string-keyed maps become objects,
// anything else goes through gocty implication.
func CtyFromNative(v any) (cty.Value, error) {
	switch nv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return nv, nil
	case bool:
		return cty.BoolVal(nv), nil
	case string:
		return cty.StringVal(nv), nil
	case int:
		return cty.NumberIntVal(int64(nv)), nil
	case int64:
		return cty.NumberIntVal(nv), nil
	case float64:
		return cty.NumberFloatVal(nv), nil
	case objgraph.Tuple:
		return tupleFromSlice(nv)
	case []any:
		return tupleFromSlice(nv)
	case map[string]any:
		if len(nv) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(nv))
		for k, item := range nv {
			cv, err := CtyFromNative(item)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	default:
		t, err := gocty.ImpliedType(v)
		if err != nil {
			return cty.NilVal, fmt.Errorf("sig: cannot lift %T to a cty value: %w", v, err)
		}
		return gocty.ToCtyValue(v, t)
	}
}

func tupleFromSlice(items []any) (cty.Value, error) {
	if len(items) == 0 {
		return cty.EmptyTupleVal, nil
	}
	out := make([]cty.Value, len(items))
	for i, item := range items {
		cv, err := CtyFromNative(item)
		if err != nil {
			return cty.NilVal, err
		}
		out[i] = cv
	}
	return cty.TupleVal(out), nil
}
