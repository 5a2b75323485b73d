package sig

// slotKind is a parameter slot's binding kind in the synthesis IR.
type slotKind int

const (
	slotPositional slotKind = iota
	slotVarPositional
	slotKeywordOnly
	slotVarKeyword
)

// paramSlot is one entry of the intermediate representation a callable is
// synthesized from: binding kind, name, value spec, and whether the slot
// must present as defaulted even though its spec has no default. The grammar
// of a parameter list requires every positional parameter after the first
// defaulted one to carry a default, so such slots bind the missing-value
// sentinel (a typed null) when no argument is supplied.
type paramSlot struct {
	kind         slotKind
	name         string
	spec         *ValueSpec
	forceDefault bool
}

// optional reports whether a call may omit the slot.
func (p paramSlot) optional() bool {
	return p.spec.HasDefault() || p.forceDefault
}

// slots derives the parameter-slot IR from the signature, deterministically:
// positional slots first, then the wildcard positional slot, then
// keyword-only slots, then the wildcard keyword slot.
func (s *Signature) slots() []paramSlot {
	out := make([]paramSlot, 0, len(s.Args)+len(s.KwOnlyArgs)+2)

	hasPreviousDefault := false
	for _, arg := range s.Args {
		out = append(out, paramSlot{
			kind:         slotPositional,
			name:         arg.Name,
			spec:         arg.Spec,
			forceDefault: hasPreviousDefault && !arg.Spec.HasDefault(),
		})
		if arg.Spec.HasDefault() {
			hasPreviousDefault = true
		}
	}
	if s.VarArgs != nil {
		out = append(out, paramSlot{kind: slotVarPositional, name: s.VarArgs.Name, spec: s.VarArgs.Spec})
	}
	for _, arg := range s.KwOnlyArgs {
		out = append(out, paramSlot{kind: slotKeywordOnly, name: arg.Name, spec: arg.Spec})
	}
	if s.VarKw != nil {
		out = append(out, paramSlot{kind: slotVarKeyword, name: s.VarKw.Name, spec: s.VarKw.Spec})
	}
	return out
}
