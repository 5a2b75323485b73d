package sig

import (
	"fmt"

	"github.com/objgraph/objgraph/internal/textfmt"
)

// CallableType distinguishes free functions from subject-bound callables.
type CallableType int

const (
	// CallableFunction is a regular function or synthesized callable with no
	// subject bound.
	CallableFunction CallableType = iota + 1

	// CallableMethod is a callable bound to a subject, like a class method.
	CallableMethod
)

func (ct CallableType) String() string {
	switch ct {
	case CallableFunction:
		return "function"
	case CallableMethod:
		return "method"
	default:
		return fmt.Sprintf("CallableType(%d)", int(ct))
	}
}

// Argument is one named parameter with its value specification. Arguments
// are immutable once constructed.
type Argument struct {
	Name string
	Spec *ValueSpec
}

// NewArgument builds an argument; a nil spec means unconstrained.
func NewArgument(name string, spec *ValueSpec) Argument {
	if spec == nil {
		spec = Any()
	}
	return Argument{Name: name, Spec: spec}
}

// ArgumentFromAnnotation builds an argument whose spec is derived from an
// annotation object.
func ArgumentFromAnnotation(name string, annotation any) (Argument, error) {
	spec, err := FromAnnotation(annotation, false)
	if err != nil {
		return Argument{}, err
	}
	return Argument{Name: name, Spec: spec}, nil
}

// Equal compares name and spec.
func (a Argument) Equal(b Argument) bool {
	return a.Name == b.Name && a.Spec.Equal(b.Spec)
}

func (a Argument) String() string {
	return a.Name + ": " + a.Spec.String()
}

// Signature is the structural description of a callable: its identity and
// its ordered argument lists. Declaration order of Args and KwOnlyArgs is
// semantically meaningful: it drives positional binding and synthesized
// parameter order. A Signature is built once and treated as an immutable
// value afterwards.
type Signature struct {
	CallableType CallableType
	Name         string
	ModuleName   string
	QualName     string

	Args        []Argument
	KwOnlyArgs  []Argument
	VarArgs     *Argument
	VarKw       *Argument
	ReturnValue *ValueSpec
}

// Validate checks the signature's structural invariants: a known callable
// type, a name, and argument names unique across every list and slot.
func (s *Signature) Validate() error {
	if s.CallableType != CallableFunction && s.CallableType != CallableMethod {
		return fmt.Errorf("sig: signature %q has no callable type", s.Name)
	}
	if s.Name == "" {
		return fmt.Errorf("sig: signature has no name")
	}
	seen := make(map[string]struct{})
	check := func(name string) error {
		if name == "" {
			return fmt.Errorf("sig: signature %q has an unnamed argument", s.Name)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("sig: signature %q declares argument %q more than once", s.Name, name)
		}
		seen[name] = struct{}{}
		return nil
	}
	for _, arg := range s.NamedArgs() {
		if err := check(arg.Name); err != nil {
			return err
		}
	}
	if s.VarArgs != nil {
		if err := check(s.VarArgs.Name); err != nil {
			return err
		}
	}
	if s.VarKw != nil {
		if err := check(s.VarKw.Name); err != nil {
			return err
		}
	}
	return nil
}

// NamedArgs returns positional then keyword-only arguments in declaration
// order.
func (s *Signature) NamedArgs() []Argument {
	out := make([]Argument, 0, len(s.Args)+len(s.KwOnlyArgs))
	out = append(out, s.Args...)
	return append(out, s.KwOnlyArgs...)
}

// ArgNames returns the names of all named arguments in declaration order.
func (s *Signature) ArgNames() []string {
	named := s.NamedArgs()
	out := make([]string, len(named))
	for i, arg := range named {
		out[i] = arg.Name
	}
	return out
}

// GetValueSpec returns the spec for an argument name. Exact positional and
// keyword-only matches win; otherwise the var-keyword spec applies when the
// callable accepts arbitrary keywords; otherwise nil.
func (s *Signature) GetValueSpec(name string) *ValueSpec {
	for _, arg := range s.NamedArgs() {
		if arg.Name == name {
			return arg.Spec
		}
	}
	if s.HasVarKw() {
		return s.VarKw.Spec
	}
	return nil
}

// ID returns the callable's dotted identity: module name plus qualified
// name.
func (s *Signature) ID() string {
	return s.ModuleName + "." + s.qualName()
}

func (s *Signature) qualName() string {
	if s.QualName != "" {
		return s.QualName
	}
	return s.Name
}

// HasVarArgs reports whether a wildcard positional argument is present.
func (s *Signature) HasVarArgs() bool {
	return s.VarArgs != nil
}

// HasVarKw reports whether a wildcard keyword argument is present.
func (s *Signature) HasVarKw() bool {
	return s.VarKw != nil
}

// HasWildcardArgs reports whether any wildcard argument is present.
func (s *Signature) HasWildcardArgs() bool {
	return s.HasVarArgs() || s.HasVarKw()
}

// Equal reports deep signature equality; identity short-circuits.
func (s *Signature) Equal(o *Signature) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	if s.CallableType != o.CallableType ||
		s.Name != o.Name ||
		s.qualName() != o.qualName() ||
		s.ModuleName != o.ModuleName {
		return false
	}
	if !argsEqual(s.Args, o.Args) || !argsEqual(s.KwOnlyArgs, o.KwOnlyArgs) {
		return false
	}
	if !optArgEqual(s.VarArgs, o.VarArgs) || !optArgEqual(s.VarKw, o.VarKw) {
		return false
	}
	return specsEqual(s.ReturnValue, o.ReturnValue)
}

func argsEqual(a, b []Argument) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func optArgEqual(a, b *Argument) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func specsEqual(a, b *ValueSpec) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func (s *Signature) String() string {
	return "Signature(" + textfmt.KVList([]textfmt.KV{
		{Key: "", Value: fmt.Sprintf("%q", s.ID())},
		{Key: "args", Value: argsString(s.Args), Default: "[]"},
		{Key: "kwonlyargs", Value: argsString(s.KwOnlyArgs), Default: "[]"},
		{Key: "returns", Value: specString(s.ReturnValue), Default: ""},
		{Key: "varargs", Value: optArgString(s.VarArgs), Default: ""},
		{Key: "varkw", Value: optArgString(s.VarKw), Default: ""},
	}) + ")"
}

func argsString(args []Argument) string {
	if len(args) == 0 {
		return "[]"
	}
	out := "["
	for i, arg := range args {
		if i > 0 {
			out += ", "
		}
		out += arg.String()
	}
	return out + "]"
}

func optArgString(a *Argument) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func specString(s *ValueSpec) string {
	if s == nil {
		return ""
	}
	return s.String()
}
