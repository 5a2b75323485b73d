package objgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/objgraph/objgraph/symtab"
)

// ConverterFunc is the pluggable fallback hook: given the Go type of an
// otherwise unconvertible value it may return a converter producing a value
// the protocol can serialize, or nil to decline.
type ConverterFunc func(t reflect.Type) func(v any) (any, error)

// FunctionDecoder reconstructs a callable from an embedded code blob. It is
// installed by the sig package (or any other provider of runtime-constructed
// callables) so the protocol stays independent of how callables are built.
type FunctionDecoder func(name string, code []byte, defaults any) (any, error)

// Codec binds the serialization protocol to a registry, a symbol table and
// the optional hooks. All dependencies are explicit; the package-level
// functions delegate to Default.
type Codec struct {
	Registry      *Registry
	Symbols       *symtab.Table
	TypeConverter ConverterFunc
	FuncDecoder   FunctionDecoder
}

// NewCodec creates a codec over the given registry and symbol table.
func NewCodec(registry *Registry, symbols *symtab.Table) *Codec {
	return &Codec{Registry: registry, Symbols: symbols}
}

// Default is the process-wide codec over DefaultRegistry and symtab.Default.
var Default = NewCodec(DefaultRegistry, symtab.Default)

// RegisterFunctionDecoder installs the embedded-code function decoder on the
// default codec.
func RegisterFunctionDecoder(d FunctionDecoder) {
	Default.FuncDecoder = d
}

// SetTypeConverter installs the fallback converter hook on the default codec.
func SetTypeConverter(c ConverterFunc) {
	Default.TypeConverter = c
}

// ToJSON serializes v into a JSON value tree using the default codec.
func ToJSON(v any, opts Options) (any, error) {
	return Default.ToJSON(v, opts)
}

// FromJSON deserializes a JSON value tree using the default codec.
func FromJSON(j any) (any, error) {
	return Default.FromJSON(j)
}

// Marshal serializes v to JSON text.
func Marshal(v any, opts Options) ([]byte, error) {
	return Default.Marshal(v, opts)
}

// Unmarshal deserializes JSON text produced by Marshal.
func Unmarshal(data []byte) (any, error) {
	return Default.Unmarshal(data)
}

// Marshal serializes v into a JSON value tree and encodes it as text.
func (c *Codec) Marshal(v any, opts Options) ([]byte, error) {
	tree, err := c.ToJSON(v, opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// Unmarshal decodes JSON text into a value tree and deserializes it.
// Numbers without a fractional part come back as int64, so integer-valued
// trees survive a text round trip.
func (c *Codec) Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("objgraph: decoding JSON text: %w", err)
	}
	return c.FromJSON(normalizeNumbers(tree))
}

func normalizeNumbers(tree any) any {
	switch tv := tree.(type) {
	case json.Number:
		s := tv.String()
		if !strings.ContainsAny(s, ".eE") {
			if n, err := tv.Int64(); err == nil {
				return n
			}
		}
		f, _ := tv.Float64()
		return f
	case []any:
		for i, item := range tv {
			tv[i] = normalizeNumbers(item)
		}
		return tv
	case map[string]any:
		for k, item := range tv {
			tv[k] = normalizeNumbers(item)
		}
		return tv
	default:
		return tree
	}
}
