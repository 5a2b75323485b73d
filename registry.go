package objgraph

import (
	"fmt"
	"log/slog"
	"reflect"
)

// RegisteredType is a class handle from the registry's point of view: the
// concrete Go type (for diagnostics) and the decoder invoked when the type's
// name shows up as a wire discriminator.
type RegisteredType struct {
	GoType   reflect.Type
	FromJSON FromJSONFunc
}

// RegistryEntry is one (type name, class) pair in registration order.
type RegistryEntry struct {
	TypeName string
	Type     *RegisteredType
}

// Registry maps string type names to class handles for deserialization. One
// name maps to exactly one class at a time; a class may be registered under
// several names (aliases). Entries live for the process lifetime.
//
// The registry is unsynchronized: registration is expected to happen from
// package init functions, with read-only lookups afterwards.
type Registry struct {
	entries map[string]*RegisteredType
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegisteredType)}
}

// Register binds typeName to t. When the name is already bound,
// registration fails with a DuplicateRegistrationError unless
// overrideExisting is set, in which case the new class wins and the name
// keeps its original position in iteration order.
func (r *Registry) Register(typeName string, t *RegisteredType, overrideExisting bool) error {
	if existing, ok := r.entries[typeName]; ok {
		if !overrideExisting {
			return &DuplicateRegistrationError{TypeName: typeName, Existing: existing.GoType}
		}
		slog.Debug("Overriding registered type.", "name", typeName, "class", fmt.Sprint(t.GoType))
		r.entries[typeName] = t
		return nil
	}
	slog.Debug("Registering type.", "name", typeName, "class", fmt.Sprint(t.GoType))
	r.entries[typeName] = t
	r.order = append(r.order, typeName)
	return nil
}

// MustRegister is Register without override, panicking on conflict. It is
// meant for package init functions, where a conflict is a programming error.
func (r *Registry) MustRegister(typeName string, t *RegisteredType) {
	if err := r.Register(typeName, t, false); err != nil {
		panic(err)
	}
}

// IsRegistered reports whether typeName is bound.
func (r *Registry) IsRegistered(typeName string) bool {
	_, ok := r.entries[typeName]
	return ok
}

// Lookup returns the class bound to typeName, or nil.
func (r *Registry) Lookup(typeName string) *RegisteredType {
	return r.entries[typeName]
}

// Types returns all registered (type name, class) pairs in registration
// order.
func (r *Registry) Types() []RegistryEntry {
	out := make([]RegistryEntry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, RegistryEntry{TypeName: name, Type: r.entries[name]})
	}
	return out
}

// DefaultRegistry is the process-wide registry behind the package-level
// helpers and the default codec.
var DefaultRegistry = NewRegistry()

// Register registers a type on the default registry.
func Register(typeName string, t *RegisteredType, overrideExisting bool) error {
	return DefaultRegistry.Register(typeName, t, overrideExisting)
}

// MustRegister registers a type on the default registry, panicking on
// conflict.
func MustRegister(typeName string, t *RegisteredType) {
	DefaultRegistry.MustRegister(typeName, t)
}
