// Package sig models callable signatures: the named, ordered, value-spec
// constrained argument lists of functions and methods.
//
// A Signature can be introspected from a live callable (a Go function, a
// cty function, or any signature-bearing value), queried for per-argument
// value specifications, and used to synthesize a new callable (a Func) that
// exposes the same signature but runs a caller-supplied body with argument
// validation injected at every call.
//
// Synthesized bodies are either native Go closures or HCL expressions
// compiled at runtime, evaluated against a scope holding the bound
// arguments, the captured globals/locals and the builtin function set.
package sig
