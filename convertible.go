package objgraph

import (
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

const (
	// TypeNameKey is the reserved mapping key carrying the type discriminator.
	TypeNameKey = "_type"

	// TupleMarker is the reserved first list element marking a tuple encoding.
	TupleMarker = "__tuple__"
)

// Tuple is an ordered, fixed-shape sequence. It is a distinct type so the
// protocol can keep the tuple/list distinction across a round trip.
type Tuple []any

// Options carries caller-defined flags forwarded to every nested Convertible
// call during a traversal. The protocol itself assigns no meaning to them.
type Options map[string]any

// Convertible is the serialize half of the convertible-object contract. The
// returned mapping must carry TypeNameKey naming the registered class (or an
// alias of it).
type Convertible interface {
	ToJSON(opts Options) (map[string]any, error)
}

// FromJSONFunc is the deserialize half of the contract: it receives the full
// wire mapping, discriminator included, and returns a reconstructed instance.
type FromJSONFunc func(m map[string]any, opts Options) (any, error)

// ToJSONDict builds a wire mapping for a registered type from its field
// values, serializing each through the default codec. It is the standard
// body of a ToJSON implementation.
func ToJSONDict(typeName string, fields map[string]any, opts Options) (map[string]any, error) {
	out := make(map[string]any, len(fields)+1)
	out[TypeNameKey] = typeName
	for name, value := range fields {
		jv, err := ToJSON(value, opts)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = jv
	}
	return out, nil
}

// NewStructType builds a RegisteredType whose decoder fills a fresh instance
// of prototype's type from the wire mapping. Field keys come from the json
// struct tag when present, otherwise from the field name with its first rune
// lowered. Nested values are deserialized through the default codec.
func NewStructType(prototype any) *RegisteredType {
	rt := reflect.TypeOf(prototype)
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return &RegisteredType{
		GoType: rt,
		FromJSON: func(m map[string]any, opts Options) (any, error) {
			p := reflect.New(rt)
			if err := decodeStructFields(p.Elem(), m); err != nil {
				return nil, fmt.Errorf("objgraph: decoding %s: %w", rt, err)
			}
			return p.Interface(), nil
		},
	}
}

func decodeStructFields(dst reflect.Value, m map[string]any) error {
	rt := dst.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		key := FieldKey(field)
		if key == "" || key == TypeNameKey {
			continue
		}
		raw, ok := m[key]
		if !ok {
			continue
		}
		value, err := FromJSON(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if err := assignField(dst.Field(i), value); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	return nil
}

// FieldKey returns the wire key for a struct field: the json tag name when
// present ("-" opts the field out), otherwise the field name with its first
// rune lowered.
func FieldKey(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		name := tag
		for j := 0; j < len(tag); j++ {
			if tag[j] == ',' {
				name = tag[:j]
				break
			}
		}
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	r, size := utf8.DecodeRuneInString(field.Name)
	return string(unicode.ToLower(r)) + field.Name[size:]
}

func assignField(dst reflect.Value, value any) error {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	ft := dst.Type()
	switch {
	case rv.Type().AssignableTo(ft):
		dst.Set(rv)
	case rv.Type().ConvertibleTo(ft) && ft.Kind() != reflect.String:
		dst.Set(rv.Convert(ft))
	case ft.Kind() == reflect.Slice && rv.Kind() == reflect.Slice:
		out := reflect.MakeSlice(ft, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if err := assignField(out.Index(i), rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		dst.Set(out)
	case ft.Kind() == reflect.Map && rv.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(ft, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			ev := reflect.New(ft.Elem()).Elem()
			if err := assignField(ev, iter.Value().Interface()); err != nil {
				return err
			}
			kv := iter.Key()
			if !kv.Type().AssignableTo(ft.Key()) {
				return fmt.Errorf("cannot use %s as map key of %s", kv.Type(), ft.Key())
			}
			out.SetMapIndex(kv, ev)
		}
		dst.Set(out)
	default:
		return fmt.Errorf("cannot assign %T to %s", value, ft)
	}
	return nil
}
