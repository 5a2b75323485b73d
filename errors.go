package objgraph

import (
	"errors"
	"fmt"
	"reflect"
)

// DuplicateRegistrationError reports an attempt to register a type name that
// is already bound to a class, without override permission.
type DuplicateRegistrationError struct {
	TypeName string
	Existing reflect.Type
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("objgraph: type name %q is already registered with %s", e.TypeName, e.Existing)
}

// TypeNotRegisteredError reports a wire-tree type identifier that no class
// has been registered under.
type TypeNotRegisteredError struct {
	TypeName string
}

func (e *TypeNotRegisteredError) Error() string {
	return fmt.Sprintf("objgraph: type name %q is not registered", e.TypeName)
}

// UnconvertibleValueError reports a complex value that matched no
// serialization branch and no converter hook.
type UnconvertibleValueError struct {
	Value any
}

func (e *UnconvertibleValueError) Error() string {
	return fmt.Sprintf("objgraph: cannot convert complex value %v (%T) to JSON", e.Value, e.Value)
}

// LocalSymbolError reports a class or function handle whose dotted name does
// not resolve back to the handle itself, meaning it cannot be relocated by
// name on the way back in.
type LocalSymbolError struct {
	Name string
}

func (e *LocalSymbolError) Error() string {
	return fmt.Sprintf("objgraph: cannot convert local symbol %q to JSON: its name does not resolve back to it", e.Name)
}

// ErrEmptyTuple reports a tuple marker with no trailing elements.
var ErrEmptyTuple = errors.New("objgraph: tuple marker without elements")
