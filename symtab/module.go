package symtab

import "reflect"

// attrProvider is implemented by symbols whose members can be traversed by
// name during resolution.
type attrProvider interface {
	Attr(name string) (any, bool)
}

// Module is a named namespace of symbols. It plays the role of an importable
// module: the left, lower-case portion of a dotted name selects a Module and
// the remaining segments traverse its members.
type Module struct {
	name    string
	table   *Table
	symbols map[string]any
}

// Name returns the module's dotted name.
func (m *Module) Name() string {
	return m.name
}

// Define binds a symbol under the module. Classes attached here have their
// full names stamped and their members indexed for reverse lookup. Defining
// the same name twice replaces the previous symbol; the resolution cache is
// not invalidated, so redefinition after first resolution is a caller bug.
func (m *Module) Define(name string, symbol any) {
	m.symbols[name] = symbol
	dotted := m.name + "." + name
	if c, ok := symbol.(*Class); ok {
		c.attach(m.table, dotted)
		return
	}
	m.table.index(symbol, dotted)
}

// Attr returns the symbol bound under name, if any.
func (m *Module) Attr(name string) (any, bool) {
	s, ok := m.symbols[name]
	return s, ok
}

// Class is a registered type handle: a Go type plus a namespace of members
// (nested classes, methods, functions). Classes are the values serialized as
// {"_type":"type","name":...} entries.
type Class struct {
	fullName string
	goType   reflect.Type
	table    *Table
	members  map[string]any
}

// NewClass creates an unattached class handle for a Go type. The handle
// becomes resolvable once defined under a Module or a parent Class.
func NewClass(goType reflect.Type) *Class {
	return &Class{
		goType:  goType,
		members: make(map[string]any),
	}
}

// GoType returns the Go type the class handle stands for.
func (c *Class) GoType() reflect.Type {
	return c.goType
}

// FullName returns the dotted name of the class, or "" while unattached.
func (c *Class) FullName() string {
	return c.fullName
}

// Define binds a member symbol under the class.
func (c *Class) Define(name string, symbol any) {
	c.members[name] = symbol
	if c.table != nil {
		c.attachMember(name, symbol)
	}
}

// DefineMethod binds fn as a class-level method and returns its handle.
func (c *Class) DefineMethod(name string, fn any) *Method {
	m := &Method{class: c, name: name, fn: fn}
	c.Define(name, m)
	return m
}

// Attr returns the member bound under name, if any.
func (c *Class) Attr(name string) (any, bool) {
	s, ok := c.members[name]
	return s, ok
}

func (c *Class) attach(t *Table, dotted string) {
	c.table = t
	c.fullName = dotted
	t.index(c, dotted)
	for name, member := range c.members {
		c.attachMember(name, member)
	}
}

func (c *Class) attachMember(name string, symbol any) {
	dotted := c.fullName + "." + name
	if nested, ok := symbol.(*Class); ok {
		nested.attach(c.table, dotted)
		return
	}
	c.table.index(symbol, dotted)
}

// Method is a callable bound to a Class. An unbound method stands for a
// class-level routine (the only flavor the wire format carries); Bind
// produces an instance-bound handle, which serialization refuses.
type Method struct {
	class    *Class
	name     string
	fn       any
	receiver any
}

// Class returns the owning class handle.
func (m *Method) Class() *Class {
	return m.class
}

// FullName returns the dotted name of the method.
func (m *Method) FullName() string {
	return m.class.fullName + "." + m.name
}

// Func returns the underlying Go function.
func (m *Method) Func() any {
	return m.fn
}

// Bind returns a copy of the method bound to receiver.
func (m *Method) Bind(receiver any) *Method {
	return &Method{class: m.class, name: m.name, fn: m.fn, receiver: receiver}
}

// IsBound reports whether the method carries an instance receiver.
func (m *Method) IsBound() bool {
	return m.receiver != nil
}

// Receiver returns the bound receiver, or nil for class-level methods.
func (m *Method) Receiver() any {
	return m.receiver
}
