package sig

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValueSpec is the constraint attached to a single argument or return
// value: an optional type annotation plus an optional default. Specs are
// value objects; SetDefault returns its receiver for chaining but specs are
// otherwise treated as immutable once attached to a Signature.
type ValueSpec struct {
	annotation    cty.Type
	hasAnnotation bool
	def           cty.Value
	hasDefault    bool
}

// Any returns an unconstrained spec.
func Any() *ValueSpec {
	return &ValueSpec{}
}

// Typed returns a spec constrained to the given cty type.
func Typed(t cty.Type) *ValueSpec {
	if t == cty.NilType {
		return Any()
	}
	return &ValueSpec{annotation: t, hasAnnotation: true}
}

// FromAnnotation derives a spec from an annotation object. Accepted
// annotations are cty.Type values, reflect.Type values (implied through
// gocty), and type-expression strings like "string" or "list(number)". With
// acceptValue set, any other value is treated as an example and its implied
// type becomes the annotation; without it, unknown annotations are an error.
// A nil annotation yields an unconstrained spec.
func FromAnnotation(annotation any, acceptValue bool) (*ValueSpec, error) {
	switch a := annotation.(type) {
	case nil:
		return Any(), nil
	case *ValueSpec:
		return a, nil
	case cty.Type:
		return Typed(a), nil
	case reflect.Type:
		return specFromGoType(a), nil
	case string:
		t, err := ParseTypeExpr(a)
		if err != nil {
			return nil, err
		}
		return Typed(t), nil
	default:
		if !acceptValue {
			return nil, fmt.Errorf("sig: unsupported annotation %v (%T)", annotation, annotation)
		}
		t, err := gocty.ImpliedType(annotation)
		if err != nil {
			return nil, fmt.Errorf("sig: cannot imply type from value %v: %w", annotation, err)
		}
		return Typed(t), nil
	}
}

// SetDefault attaches a default value and returns the spec.
func (s *ValueSpec) SetDefault(v cty.Value) *ValueSpec {
	s.def = v
	s.hasDefault = true
	return s
}

// HasDefault reports whether a default is attached.
func (s *ValueSpec) HasDefault() bool {
	return s.hasDefault
}

// Default returns the attached default, or cty.NilVal.
func (s *ValueSpec) Default() cty.Value {
	return s.def
}

// HasAnnotation reports whether the spec carries a type annotation.
func (s *ValueSpec) HasAnnotation() bool {
	return s.hasAnnotation
}

// Annotation returns the annotated type; unconstrained specs report
// cty.DynamicPseudoType.
func (s *ValueSpec) Annotation() cty.Type {
	if !s.hasAnnotation {
		return cty.DynamicPseudoType
	}
	return s.annotation
}

// Validate coerces v to the annotated type, or returns it unchanged for
// unconstrained specs. Inconvertible values fail.
func (s *ValueSpec) Validate(v cty.Value) (cty.Value, error) {
	if !s.hasAnnotation || s.annotation == cty.DynamicPseudoType {
		return v, nil
	}
	out, err := convert.Convert(v, s.annotation)
	if err != nil {
		return cty.NilVal, fmt.Errorf("sig: value %v does not conform to %s: %w",
			v, s.annotation.FriendlyName(), err)
	}
	return out, nil
}

// Equal reports spec equality: same annotation presence and type, same
// default presence and value.
func (s *ValueSpec) Equal(o *ValueSpec) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	if s.hasAnnotation != o.hasAnnotation || s.hasDefault != o.hasDefault {
		return false
	}
	if s.hasAnnotation && !s.annotation.Equals(o.annotation) {
		return false
	}
	if s.hasDefault && !s.def.RawEquals(o.def) {
		return false
	}
	return true
}

func (s *ValueSpec) String() string {
	out := "any"
	if s.hasAnnotation {
		out = s.annotation.FriendlyName()
	}
	if s.hasDefault {
		out += fmt.Sprintf(" (default=%v)", s.def)
	}
	return out
}

// ParseTypeExpr parses a type-expression string ("string", "bool",
// "list(number)", "map(string)", "set(number)", "any") into a cty type.
func ParseTypeExpr(src string) (cty.Type, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "<type>", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return cty.NilType, fmt.Errorf("sig: parsing type expression %q: %s", src, diags.Error())
	}
	return typeFromExpr(expr)
}

// typeFromExpr converts an HCL type expression into its cty.Type equivalent.
func typeFromExpr(expr hcl.Expression) (cty.Type, error) {
	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		if len(v.Args) != 1 {
			return cty.NilType, fmt.Errorf("sig: type constructors (list, map, set) require exactly one argument, got %d", len(v.Args))
		}
		elementType, err := typeFromExpr(v.Args[0])
		if err != nil {
			return cty.NilType, err
		}
		switch v.Name {
		case "list":
			return cty.List(elementType), nil
		case "map":
			return cty.Map(elementType), nil
		case "set":
			return cty.Set(elementType), nil
		default:
			return cty.NilType, fmt.Errorf("sig: unknown type constructor %q", v.Name)
		}
	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return cty.NilType, fmt.Errorf("sig: invalid type keyword: traversal path is not a single identifier")
		}
		switch name := v.Traversal.RootName(); name {
		case "string":
			return cty.String, nil
		case "number":
			return cty.Number, nil
		case "bool":
			return cty.Bool, nil
		case "any":
			return cty.DynamicPseudoType, nil
		default:
			return cty.NilType, fmt.Errorf("sig: unknown primitive type %q", name)
		}
	default:
		return cty.NilType, fmt.Errorf("sig: unsupported expression for type definition: %T", v)
	}
}

func specFromGoType(t reflect.Type) *ValueSpec {
	if t == nil || t.Kind() == reflect.Interface {
		return Any()
	}
	implied, err := gocty.ImpliedType(reflect.Zero(t).Interface())
	if err != nil {
		return Any()
	}
	return Typed(implied)
}
