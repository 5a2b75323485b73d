package sig

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/objgraph/objgraph"
	"github.com/objgraph/objgraph/symtab"
)

// ErrNotCallable reports a FromCallable source that is not callable.
var ErrNotCallable = errors.New("sig: value is not callable")

// SignatureBearer is implemented by callables that carry a pre-built
// signature, such as synthesized Funcs. FromCallable returns the carried
// signature directly instead of re-introspecting.
type SignatureBearer interface {
	Signature() *Signature
}

var (
	ctxType      = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType      = reflect.TypeOf((*error)(nil)).Elem()
	ctyValueType = reflect.TypeOf(cty.Value{})
)

// FromCallable builds a Signature by introspecting a live callable: a
// signature-bearing value, a method handle, a cty function, a Go function,
// or a value exposing a Call method. Anything else fails with
// ErrNotCallable before introspection proceeds.
func FromCallable(v any) (*Signature, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: <nil>", ErrNotCallable)
	}
	if sb, ok := v.(SignatureBearer); ok {
		s := sb.Signature()
		if s == nil {
			return nil, fmt.Errorf("%w: %T carries no signature", ErrNotCallable, v)
		}
		return s, nil
	}
	if m, ok := v.(*symtab.Method); ok {
		return fromMethodHandle(m)
	}
	if fn, ok := v.(function.Function); ok {
		return fromCtyFunction(fn), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func {
		return fromGoFunc(rv, CallableFunction, "")
	}
	if call := rv.MethodByName("Call"); call.IsValid() {
		return fromGoFunc(call, CallableMethod, reflect.TypeOf(v).String()+".Call")
	}
	return nil, fmt.Errorf("%w: %T", ErrNotCallable, v)
}

func fromMethodHandle(m *symtab.Method) (*Signature, error) {
	fn := reflect.ValueOf(m.Func())
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: method %q wraps a %T", ErrNotCallable, m.FullName(), m.Func())
	}
	s, err := fromGoFunc(fn, CallableMethod, m.FullName())
	if err != nil {
		return nil, err
	}
	full := m.FullName()
	if dot := strings.LastIndexByte(full, '.'); dot >= 0 {
		s.Name = full[dot+1:]
	}
	// Module is the lower-case prefix of the class path; the qualified name
	// is everything after it.
	if cls := m.Class().FullName(); cls != "" {
		segments := strings.Split(cls, ".")
		boundary := len(segments)
		for i, seg := range segments {
			if seg != "" && seg[0] >= 'A' && seg[0] <= 'Z' {
				boundary = i
				break
			}
		}
		if boundary > 0 && boundary < len(segments) {
			module := strings.Join(segments[:boundary], ".")
			s.ModuleName = module
			s.QualName = strings.TrimPrefix(full, module+".")
		}
	}
	return s, nil
}

// fromGoFunc introspects a Go function's parameter list. A leading
// context.Context is treated as plumbing, not an argument. A single
// struct-pointer parameter expands into named arguments from its exported
// fields (the handler-input convention); otherwise parameters become
// positional arguments named arg0..argN, with a trailing variadic parameter
// becoming the wildcard positional slot.
func fromGoFunc(rv reflect.Value, ct CallableType, identity string) (*Signature, error) {
	t := rv.Type()
	if identity == "" {
		identity = runtimeIdentity(rv)
	}
	name, module, qual := splitIdentity(identity)

	s := &Signature{
		CallableType: ct,
		Name:         name,
		ModuleName:   module,
		QualName:     qual,
	}

	start := 0
	if t.NumIn() > 0 && t.In(0) == ctxType {
		start = 1
	}

	if t.NumIn()-start == 1 && !t.IsVariadic() && isStructArg(t.In(start)) {
		st := t.In(start)
		if st.Kind() == reflect.Pointer {
			st = st.Elem()
		}
		for i := 0; i < st.NumField(); i++ {
			field := st.Field(i)
			if !field.IsExported() {
				continue
			}
			key := objgraph.FieldKey(field)
			if key == "" {
				continue
			}
			s.Args = append(s.Args, Argument{Name: key, Spec: specFromGoType(field.Type)})
		}
	} else {
		for i := start; i < t.NumIn(); i++ {
			if t.IsVariadic() && i == t.NumIn()-1 {
				arg := Argument{Name: "args", Spec: specFromGoType(t.In(i).Elem())}
				s.VarArgs = &arg
				break
			}
			s.Args = append(s.Args, Argument{
				Name: fmt.Sprintf("arg%d", i-start),
				Spec: specFromGoType(t.In(i)),
			})
		}
	}

	if rt := resultType(t); rt != nil {
		s.ReturnValue = specFromGoType(rt)
	}
	return s, nil
}

func isStructArg(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != ctyValueType
}

// resultType returns the single non-error result type, or nil.
func resultType(t reflect.Type) reflect.Type {
	n := t.NumOut()
	if n > 0 && t.Out(n-1) == errType {
		n--
	}
	if n != 1 {
		return nil
	}
	return t.Out(0)
}

// runtimeIdentity reports the linker name of a Go function value, e.g.
// "github.com/acme/geo.Scale" or "main.run.func1" for closures.
func runtimeIdentity(rv reflect.Value) string {
	if f := runtime.FuncForPC(rv.Pointer()); f != nil {
		return f.Name()
	}
	return ""
}

// splitIdentity breaks a linker or dotted name into (name, module,
// qualified name). Method-value suffixes ("-fm") and receiver parentheses
// are stripped so "pkg.(*T).M-fm" yields name "M", qualname "T.M".
func splitIdentity(identity string) (name, module, qual string) {
	if identity == "" {
		return "func", "wrapper", "func"
	}
	tail := identity
	if slash := strings.LastIndexByte(tail, '/'); slash >= 0 {
		tail = tail[slash+1:]
	}
	tail = strings.TrimSuffix(tail, "-fm")
	tail = strings.ReplaceAll(tail, "(", "")
	tail = strings.ReplaceAll(tail, ")", "")
	tail = strings.ReplaceAll(tail, "*", "")

	dot := strings.IndexByte(tail, '.')
	if dot < 0 {
		return tail, "wrapper", tail
	}
	module = tail[:dot]
	qual = tail[dot+1:]
	name = qual
	if last := strings.LastIndexByte(qual, '.'); last >= 0 {
		name = qual[last+1:]
	}
	return name, module, qual
}

// fromCtyFunction maps a cty function's parameter spec onto a Signature.
// Unnamed parameters get positional names; the variadic parameter becomes
// the wildcard positional slot. The identity comes from the default symbol
// table when the function is registered there.
func fromCtyFunction(fn function.Function) *Signature {
	s := &Signature{
		CallableType: CallableFunction,
		Name:         "builtin",
		ModuleName:   "builtins",
	}
	if dotted, ok := symtab.Default.NameOf(fn); ok {
		name, module, qual := splitIdentity(dotted)
		s.Name, s.ModuleName, s.QualName = name, module, qual
	}

	var argTypes []cty.Type
	for i, p := range fn.Params() {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		s.Args = append(s.Args, Argument{Name: name, Spec: Typed(p.Type)})
		argTypes = append(argTypes, p.Type)
	}
	if vp := fn.VarParam(); vp != nil {
		name := vp.Name
		if name == "" {
			name = "args"
		}
		arg := Argument{Name: name, Spec: Typed(vp.Type)}
		s.VarArgs = &arg
	}
	if rt, err := fn.ReturnType(argTypes); err == nil && rt != cty.NilType {
		s.ReturnValue = Typed(rt)
	}
	return s
}
