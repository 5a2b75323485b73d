package sig

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/objgraph/objgraph"
	"github.com/objgraph/objgraph/symtab"
)

func init() {
	objgraph.RegisterFunctionDecoder(decodeEmbedded)
}

// ToJSON implements the convertible-object contract for synthesized
// callables, under the reserved "function" discriminator. A native-bodied
// Func must be reachable by its dotted identity in the default symbol table
// (and resolve back to itself); an expression-bodied Func instead embeds a
// base64 code blob (its source plus its encoded signature) together with the
// wire-visible defaults tuple, so it can be reconstructed without being
// resolvable by name.
func (f *Func) ToJSON(opts objgraph.Options) (map[string]any, error) {
	id := f.sig.ID()
	src := f.Source()
	if src == "" {
		resolved, err := symtab.Default.Resolve(id)
		if err != nil || resolved != any(f) {
			return nil, &objgraph.LocalSymbolError{Name: id}
		}
		return map[string]any{
			objgraph.TypeNameKey: "function",
			"name":               id,
		}, nil
	}

	encSig, err := encodeSignature(f.sig)
	if err != nil {
		return nil, fmt.Errorf("sig: encoding signature of %q: %w", id, err)
	}
	blob, err := json.Marshal(codeBlob{Src: src, Sig: encSig})
	if err != nil {
		return nil, fmt.Errorf("sig: encoding code blob of %q: %w", id, err)
	}

	defaults, err := f.defaultsTuple()
	if err != nil {
		return nil, fmt.Errorf("sig: encoding defaults of %q: %w", id, err)
	}
	defaultsTree, err := objgraph.ToJSON(defaults, opts)
	if err != nil {
		return nil, fmt.Errorf("sig: encoding defaults of %q: %w", id, err)
	}

	return map[string]any{
		objgraph.TypeNameKey: "function",
		"name":               id,
		"code":               base64.StdEncoding.EncodeToString(blob),
		"defaults":           defaultsTree,
	}, nil
}

// defaultsTuple collects the trailing positional defaults as a native
// tuple, mirroring how a function object exposes its default values.
func (f *Func) defaultsTuple() (any, error) {
	var out objgraph.Tuple
	for _, arg := range f.sig.Args {
		if !arg.Spec.HasDefault() {
			continue
		}
		nv, err := NativeFromCty(arg.Spec.Default())
		if err != nil {
			return nil, err
		}
		out = append(out, nv)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// decodeEmbedded rebuilds an expression-bodied Func from a wire code blob.
// The blob is self-contained: the defaults tuple on the wire is advisory,
// since the encoded signature already carries typed defaults.
func decodeEmbedded(name string, code []byte, _ any) (any, error) {
	var blob codeBlob
	if err := json.Unmarshal(code, &blob); err != nil {
		return nil, fmt.Errorf("sig: decoding code blob of %q: %w", name, err)
	}
	s, err := decodeSignature(blob.Sig)
	if err != nil {
		return nil, fmt.Errorf("sig: decoding signature of %q: %w", name, err)
	}
	body, err := ExprBody(strings.Split(blob.Src, "\n"))
	if err != nil {
		return nil, fmt.Errorf("sig: recompiling %q: %w", name, err)
	}
	return s.MakeFunc(body, nil, nil)
}

// codeBlob is the embedded representation of an expression-bodied callable.
type codeBlob struct {
	Src string           `json:"src"`
	Sig encodedSignature `json:"sig"`
}

type encodedSignature struct {
	CallableType string       `json:"callable_type"`
	Name         string       `json:"name"`
	Module       string       `json:"module"`
	QualName     string       `json:"qualname,omitempty"`
	Args         []encodedArg `json:"args,omitempty"`
	KwOnlyArgs   []encodedArg `json:"kwonlyargs,omitempty"`
	VarArgs      *encodedArg  `json:"varargs,omitempty"`
	VarKw        *encodedArg  `json:"varkw,omitempty"`
	Return       *encodedSpec `json:"returns,omitempty"`
}

type encodedArg struct {
	Name string       `json:"name"`
	Spec *encodedSpec `json:"spec,omitempty"`
}

// encodedSpec carries a ValueSpec as ctyjson type/value documents.
type encodedSpec struct {
	Type        json.RawMessage `json:"type,omitempty"`
	DefaultType json.RawMessage `json:"default_type,omitempty"`
	Default     json.RawMessage `json:"default,omitempty"`
}

func encodeSignature(s *Signature) (encodedSignature, error) {
	out := encodedSignature{
		CallableType: s.CallableType.String(),
		Name:         s.Name,
		Module:       s.ModuleName,
		QualName:     s.QualName,
	}
	var err error
	if out.Args, err = encodeArgs(s.Args); err != nil {
		return out, err
	}
	if out.KwOnlyArgs, err = encodeArgs(s.KwOnlyArgs); err != nil {
		return out, err
	}
	if s.VarArgs != nil {
		if out.VarArgs, err = encodeArg(*s.VarArgs); err != nil {
			return out, err
		}
	}
	if s.VarKw != nil {
		if out.VarKw, err = encodeArg(*s.VarKw); err != nil {
			return out, err
		}
	}
	if out.Return, err = encodeSpec(s.ReturnValue); err != nil {
		return out, err
	}
	return out, nil
}

func decodeSignature(e encodedSignature) (*Signature, error) {
	s := &Signature{
		Name:       e.Name,
		ModuleName: e.Module,
		QualName:   e.QualName,
	}
	switch e.CallableType {
	case "method":
		s.CallableType = CallableMethod
	default:
		s.CallableType = CallableFunction
	}
	var err error
	if s.Args, err = decodeArgs(e.Args); err != nil {
		return nil, err
	}
	if s.KwOnlyArgs, err = decodeArgs(e.KwOnlyArgs); err != nil {
		return nil, err
	}
	if e.VarArgs != nil {
		arg, err := decodeArg(*e.VarArgs)
		if err != nil {
			return nil, err
		}
		s.VarArgs = &arg
	}
	if e.VarKw != nil {
		arg, err := decodeArg(*e.VarKw)
		if err != nil {
			return nil, err
		}
		s.VarKw = &arg
	}
	if s.ReturnValue, err = decodeSpec(e.Return); err != nil {
		return nil, err
	}
	return s, nil
}

func encodeArgs(args []Argument) ([]encodedArg, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]encodedArg, len(args))
	for i, arg := range args {
		enc, err := encodeArg(arg)
		if err != nil {
			return nil, err
		}
		out[i] = *enc
	}
	return out, nil
}

func decodeArgs(args []encodedArg) ([]Argument, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]Argument, len(args))
	for i, enc := range args {
		arg, err := decodeArg(enc)
		if err != nil {
			return nil, err
		}
		out[i] = arg
	}
	return out, nil
}

func encodeArg(arg Argument) (*encodedArg, error) {
	spec, err := encodeSpec(arg.Spec)
	if err != nil {
		return nil, fmt.Errorf("argument %q: %w", arg.Name, err)
	}
	return &encodedArg{Name: arg.Name, Spec: spec}, nil
}

func decodeArg(enc encodedArg) (Argument, error) {
	spec, err := decodeSpec(enc.Spec)
	if err != nil {
		return Argument{}, fmt.Errorf("argument %q: %w", enc.Name, err)
	}
	return NewArgument(enc.Name, spec), nil
}

func encodeSpec(s *ValueSpec) (*encodedSpec, error) {
	if s == nil {
		return nil, nil
	}
	out := &encodedSpec{}
	if s.hasAnnotation {
		raw, err := ctyjson.MarshalType(s.annotation)
		if err != nil {
			return nil, err
		}
		out.Type = raw
	}
	if s.hasDefault {
		dt := s.def.Type()
		rawType, err := ctyjson.MarshalType(dt)
		if err != nil {
			return nil, err
		}
		rawVal, err := ctyjson.Marshal(s.def, dt)
		if err != nil {
			return nil, err
		}
		out.DefaultType = rawType
		out.Default = rawVal
	}
	if out.Type == nil && out.Default == nil {
		return nil, nil
	}
	return out, nil
}

func decodeSpec(e *encodedSpec) (*ValueSpec, error) {
	if e == nil {
		return nil, nil
	}
	s := Any()
	if e.Type != nil {
		t, err := ctyjson.UnmarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		s = Typed(t)
	}
	if e.Default != nil {
		dt := cty.DynamicPseudoType
		if e.DefaultType != nil {
			t, err := ctyjson.UnmarshalType(e.DefaultType)
			if err != nil {
				return nil, err
			}
			dt = t
		}
		v, err := ctyjson.Unmarshal(e.Default, dt)
		if err != nil {
			return nil, err
		}
		s.SetDefault(v)
	}
	return s, nil
}
