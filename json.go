package objgraph

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty/function"

	"github.com/objgraph/objgraph/symtab"
)

// valueKind is the closed set of serialization categories. Classification
// happens once per value, in a fixed precedence order: primitives, then
// convertible objects, then tuple before list, then string-keyed mappings,
// then type/function/method handles, then the converter fallback. The order
// is load-bearing: it decides which branch wins for values matching several
// categories.
type valueKind int

const (
	kindPrimitive valueKind = iota
	kindConvertible
	kindTuple
	kindSequence
	kindMapping
	kindClass
	kindFunction
	kindMethod
	kindOpaque
)

func classify(v any) valueKind {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return kindPrimitive
	}
	if _, ok := v.(Convertible); ok {
		return kindConvertible
	}
	if _, ok := v.(Tuple); ok {
		return kindTuple
	}
	switch v.(type) {
	case *symtab.Class, reflect.Type:
		return kindClass
	case *symtab.Method:
		return kindMethod
	case function.Function:
		return kindFunction
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return kindSequence
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return kindMapping
		}
	case reflect.Func:
		return kindFunction
	}
	return kindOpaque
}

// ToJSON serializes a value into a JSON value tree: nil, bool, integers,
// floats, strings, []any, map[string]any, with tuples encoded as a sequence
// led by TupleMarker. Options are forwarded to nested Convertible calls.
func (c *Codec) ToJSON(v any, opts Options) (any, error) {
	switch classify(v) {
	case kindPrimitive:
		return v, nil
	case kindConvertible:
		return v.(Convertible).ToJSON(opts)
	case kindTuple:
		t := v.(Tuple)
		out := make([]any, 0, len(t)+1)
		out = append(out, TupleMarker)
		for i, item := range t {
			jv, err := c.ToJSON(item, opts)
			if err != nil {
				return nil, fmt.Errorf("tuple element %d: %w", i, err)
			}
			out = append(out, jv)
		}
		return out, nil
	case kindSequence:
		rv := reflect.ValueOf(v)
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			jv, err := c.ToJSON(rv.Index(i).Interface(), opts)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			out[i] = jv
		}
		return out, nil
	case kindMapping:
		rv := reflect.ValueOf(v)
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			jv, err := c.ToJSON(iter.Value().Interface(), opts)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = jv
		}
		return out, nil
	case kindClass:
		return c.classToJSON(v)
	case kindFunction:
		return c.functionToJSON(v)
	case kindMethod:
		return c.methodToJSON(v.(*symtab.Method))
	default:
		if c.TypeConverter != nil {
			if conv := c.TypeConverter(reflect.TypeOf(v)); conv != nil {
				converted, err := conv(v)
				if err != nil {
					return nil, err
				}
				return c.ToJSON(converted, nil)
			}
		}
		return nil, &UnconvertibleValueError{Value: v}
	}
}

// classToJSON serializes a type handle by dotted name, requiring the name to
// resolve back to the identical handle. Handles that are not reachable by
// name (never defined, or shadowed since) are refused rather than degraded
// to an embedded copy.
func (c *Codec) classToJSON(v any) (map[string]any, error) {
	var name string
	switch h := v.(type) {
	case *symtab.Class:
		name = h.FullName()
	case reflect.Type:
		name, _ = c.Symbols.NameOf(h)
	}
	if name == "" {
		return nil, &LocalSymbolError{Name: fmt.Sprintf("%v", v)}
	}
	resolved, err := c.Symbols.Resolve(name)
	if err != nil || resolved != v {
		return nil, &LocalSymbolError{Name: name}
	}
	return map[string]any{TypeNameKey: "type", "name": name}, nil
}

func (c *Codec) functionToJSON(v any) (map[string]any, error) {
	name, ok := c.Symbols.NameOf(v)
	if !ok {
		return nil, &LocalSymbolError{Name: fmt.Sprintf("%T", v)}
	}
	return map[string]any{TypeNameKey: "function", "name": name}, nil
}

func (c *Codec) methodToJSON(m *symtab.Method) (map[string]any, error) {
	if m.IsBound() {
		return nil, fmt.Errorf("objgraph: cannot convert instance-bound method %q to JSON", m.FullName())
	}
	return map[string]any{TypeNameKey: "method", "name": m.FullName()}, nil
}

// FromJSON deserializes a JSON value tree. Mappings carrying TypeNameKey are
// dispatched on the discriminator: the reserved "type", "function" and
// "method" identifiers resolve through the symbol table, anything else
// through the registry. Mappings without the key, sequences and scalars pass
// through structurally.
func (c *Codec) FromJSON(j any) (any, error) {
	switch jv := j.(type) {
	case []any:
		if len(jv) > 0 && jv[0] == TupleMarker {
			if len(jv) < 2 {
				return nil, fmt.Errorf("%w: %v", ErrEmptyTuple, jv)
			}
			out := make(Tuple, 0, len(jv)-1)
			for i, item := range jv[1:] {
				v, err := c.FromJSON(item)
				if err != nil {
					return nil, fmt.Errorf("tuple element %d: %w", i, err)
				}
				out = append(out, v)
			}
			return out, nil
		}
		out := make([]any, len(jv))
		for i, item := range jv {
			v, err := c.FromJSON(item)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case map[string]any:
		raw, ok := jv[TypeNameKey]
		if !ok {
			out := make(map[string]any, len(jv))
			for key, item := range jv {
				v, err := c.FromJSON(item)
				if err != nil {
					return nil, fmt.Errorf("key %q: %w", key, err)
				}
				out[key] = v
			}
			return out, nil
		}
		typeName, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("objgraph: %s value must be a string, got %T", TypeNameKey, raw)
		}
		switch typeName {
		case "type", "method":
			name, err := entryName(jv, typeName)
			if err != nil {
				return nil, err
			}
			return c.Symbols.Resolve(name)
		case "function":
			return c.functionFromJSON(jv)
		default:
			entry := c.Registry.Lookup(typeName)
			if entry == nil {
				return nil, &TypeNotRegisteredError{TypeName: typeName}
			}
			return entry.FromJSON(jv, nil)
		}
	default:
		return j, nil
	}
}

func (c *Codec) functionFromJSON(jv map[string]any) (any, error) {
	name, err := entryName(jv, "function")
	if err != nil {
		return nil, err
	}
	encoded, ok := jv["code"].(string)
	if !ok {
		return c.Symbols.Resolve(name)
	}
	if c.FuncDecoder == nil {
		return nil, fmt.Errorf("objgraph: function %q carries embedded code but no function decoder is installed", name)
	}
	code, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("objgraph: function %q: decoding code blob: %w", name, err)
	}
	defaults, err := c.FromJSON(jv["defaults"])
	if err != nil {
		return nil, fmt.Errorf("objgraph: function %q: decoding defaults: %w", name, err)
	}
	return c.FuncDecoder(name, code, defaults)
}

func entryName(jv map[string]any, entryKind string) (string, error) {
	name, ok := jv["name"].(string)
	if !ok || name == "" {
		return "", fmt.Errorf("objgraph: %s entry is missing its name", entryKind)
	}
	return name, nil
}
