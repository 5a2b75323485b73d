package sig

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/objgraph/objgraph/internal/ctxlog"
	"github.com/objgraph/objgraph/symtab"
)

// Func is a synthesized callable: a Signature plus a body, with argument
// validation injected between the two. Every call binds arguments to the
// signature's parameter slots, validates them against their value specs,
// evaluates the body in the resulting scope and validates the return value.
type Func struct {
	sig     *Signature
	body    Body
	globals map[string]cty.Value
	locals  map[string]cty.Value
}

// MakeFunc synthesizes a callable exposing the signature with the supplied
// body. The evaluation scope of every call is pre-seeded with globals, then
// locals, then a _default_<name> binding per defaulted argument, so bodies
// can reference defaults symbolically.
func (s *Signature) MakeFunc(body Body, globals, locals map[string]cty.Value) (*Func, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("sig: callable %q has no body", s.ID())
	}
	slog.Debug("Synthesizing callable.", "id", s.ID())
	return &Func{
		sig:     s,
		body:    body,
		globals: cloneScope(globals),
		locals:  cloneScope(locals),
	}, nil
}

// MakeExprFunc is MakeFunc over a compiled expression body.
func (s *Signature) MakeExprFunc(bodyLines []string, globals, locals map[string]cty.Value) (*Func, error) {
	body, err := ExprBody(bodyLines)
	if err != nil {
		return nil, err
	}
	return s.MakeFunc(body, globals, locals)
}

func cloneScope(m map[string]cty.Value) map[string]cty.Value {
	out := make(map[string]cty.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Signature returns the callable's signature. The callable's identity
// metadata (name, module, qualified name) is the signature's.
func (f *Func) Signature() *Signature {
	return f.sig
}

// Source returns the expression source for expression-bodied callables, or
// "" for native bodies.
func (f *Func) Source() string {
	if b, ok := f.body.(*exprBody); ok {
		return b.source()
	}
	return ""
}

// Call invokes the callable with positional and keyword arguments. Binding
// follows the parameter-slot IR: positional slots fill left to right and
// fall back to keyword binding, overflow goes to the wildcard positional
// slot, keyword-only slots bind from keywords, and leftover keywords go to
// the wildcard keyword slot. Every bound value is validated against its
// spec; so is the return value.
func (f *Func) Call(ctx context.Context, positional []cty.Value, kwargs map[string]cty.Value) (cty.Value, error) {
	bound, err := f.bind(positional, kwargs)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Call binding failed.", "id", f.sig.ID(), "error", err)
		return cty.NilVal, err
	}

	out, err := f.body.Eval(ctx, f.scope(bound))
	if err != nil {
		return cty.NilVal, fmt.Errorf("sig: %s: %w", f.sig.ID(), err)
	}
	if f.sig.ReturnValue != nil {
		out, err = f.sig.ReturnValue.Validate(out)
		if err != nil {
			return cty.NilVal, fmt.Errorf("sig: %s: return value: %w", f.sig.ID(), err)
		}
	}
	return out, nil
}

// scope layers the evaluation context: globals, locals, per-argument
// default seeds, then the bound arguments, with builtins available as
// functions.
func (f *Func) scope(bound map[string]cty.Value) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(f.globals)+len(f.locals)+2*len(bound))
	for k, v := range f.globals {
		vars[k] = v
	}
	for k, v := range f.locals {
		vars[k] = v
	}
	for _, slot := range f.sig.slots() {
		if slot.spec.HasDefault() {
			vars["_default_"+slot.name] = slot.spec.Default()
		}
	}
	for k, v := range bound {
		vars[k] = v
	}
	return &hcl.EvalContext{
		Variables: vars,
		Functions: symtab.Default.BuiltinFunctions(),
	}
}

func (f *Func) bind(positional []cty.Value, kwargs map[string]cty.Value) (map[string]cty.Value, error) {
	id := f.sig.ID()
	bound := make(map[string]cty.Value)
	consumed := make(map[string]struct{}, len(kwargs))
	next := 0

	for _, slot := range f.sig.slots() {
		switch slot.kind {
		case slotPositional:
			if next < len(positional) {
				if _, dup := kwargs[slot.name]; dup {
					return nil, fmt.Errorf("sig: %s: got multiple values for argument %q", id, slot.name)
				}
				v, err := slot.spec.Validate(positional[next])
				if err != nil {
					return nil, fmt.Errorf("sig: %s: argument %q: %w", id, slot.name, err)
				}
				bound[slot.name] = v
				next++
				continue
			}
			if v, ok := kwargs[slot.name]; ok {
				consumed[slot.name] = struct{}{}
				v, err := slot.spec.Validate(v)
				if err != nil {
					return nil, fmt.Errorf("sig: %s: argument %q: %w", id, slot.name, err)
				}
				bound[slot.name] = v
				continue
			}
			if slot.spec.HasDefault() {
				bound[slot.name] = slot.spec.Default()
				continue
			}
			if slot.forceDefault {
				// Missing-value sentinel: present but null, not validated.
				bound[slot.name] = cty.NullVal(slot.spec.Annotation())
				continue
			}
			return nil, fmt.Errorf("sig: %s: missing required argument %q", id, slot.name)

		case slotVarPositional:
			rest := positional[min(next, len(positional)):]
			items := make([]cty.Value, len(rest))
			for i, v := range rest {
				v, err := slot.spec.Validate(v)
				if err != nil {
					return nil, fmt.Errorf("sig: %s: argument %q[%d]: %w", id, slot.name, i, err)
				}
				items[i] = v
			}
			next = len(positional)
			if len(items) == 0 {
				bound[slot.name] = cty.EmptyTupleVal
			} else {
				bound[slot.name] = cty.TupleVal(items)
			}

		case slotKeywordOnly:
			if v, ok := kwargs[slot.name]; ok {
				consumed[slot.name] = struct{}{}
				v, err := slot.spec.Validate(v)
				if err != nil {
					return nil, fmt.Errorf("sig: %s: argument %q: %w", id, slot.name, err)
				}
				bound[slot.name] = v
				continue
			}
			if slot.spec.HasDefault() {
				bound[slot.name] = slot.spec.Default()
				continue
			}
			return nil, fmt.Errorf("sig: %s: missing required keyword argument %q", id, slot.name)

		case slotVarKeyword:
			extra := make(map[string]cty.Value)
			for name, v := range kwargs {
				if _, ok := consumed[name]; ok {
					continue
				}
				consumed[name] = struct{}{}
				v, err := slot.spec.Validate(v)
				if err != nil {
					return nil, fmt.Errorf("sig: %s: argument %q: %w", id, name, err)
				}
				extra[name] = v
			}
			if len(extra) == 0 {
				bound[slot.name] = cty.EmptyObjectVal
			} else {
				bound[slot.name] = cty.ObjectVal(extra)
			}
		}
	}

	if next < len(positional) {
		return nil, fmt.Errorf("sig: %s: takes %d positional arguments but %d were given",
			id, len(f.sig.Args), len(positional))
	}
	for name := range kwargs {
		if _, ok := consumed[name]; !ok {
			return nil, fmt.Errorf("sig: %s: unexpected keyword argument %q", id, name)
		}
	}
	return bound, nil
}
