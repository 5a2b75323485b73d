package symtab

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"unicode"

	"github.com/zclconf/go-cty/cty/function"
)

// ModuleNotFoundError reports a dotted name whose module portion is not
// registered in the table. It is the table's analog of an import failure.
type ModuleNotFoundError struct {
	Module string
	Symbol string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("symtab: module %q not found while resolving %q", e.Module, e.Symbol)
}

// AttrNotFoundError reports a traversal segment that does not exist on its
// parent symbol.
type AttrNotFoundError struct {
	Symbol string
	Attr   string
}

func (e *AttrNotFoundError) Error() string {
	return fmt.Sprintf("symtab: %q has no attribute %q", e.Symbol, e.Attr)
}

// Table maps dotted names to live symbols. Resolution is cached for the
// process lifetime and a reverse index supports symbol-to-name lookups for
// serialization.
type Table struct {
	modules   map[string]*Module
	cache     map[string]any
	funcNames map[uintptr]string
	names     map[any]string
}

// NewTable creates a table with the builtins module pre-registered, so that
// builtin functions resolve before any user registration runs.
func NewTable() *Table {
	t := &Table{
		modules:   make(map[string]*Module),
		cache:     make(map[string]any),
		funcNames: make(map[uintptr]string),
		names:     make(map[any]string),
	}
	t.registerBuiltins()
	return t
}

// Default is the process-wide table used by the serialization protocol.
var Default = NewTable()

// RegisterModule returns the module registered under name, creating it if
// needed. Modules are namespaces, so repeated registration is idempotent.
func (t *Table) RegisterModule(name string) *Module {
	if m, ok := t.modules[name]; ok {
		return m
	}
	slog.Debug("Registering symbol module.", "module", name)
	m := &Module{name: name, table: t, symbols: make(map[string]any)}
	t.modules[name] = m
	return m
}

// Module returns a registered module without creating it.
func (t *Table) Module(name string) (*Module, bool) {
	m, ok := t.modules[name]
	return m, ok
}

// Resolve maps a dotted name to a live symbol. The boundary between the
// module portion and the class/member chain is inferred by scanning for the
// first segment whose first rune is upper-case; this is a naming-convention
// heuristic, and names with no lower-case module portion are rejected rather
// than mis-resolved. Results are cached indefinitely.
func (t *Table) Resolve(dotted string) (any, error) {
	if s, ok := t.cache[dotted]; ok {
		return s, nil
	}
	if dotted == "" {
		return nil, fmt.Errorf("symtab: empty symbol name")
	}

	segments := strings.Split(dotted, ".")
	symbolName := segments[len(segments)-1]
	maybeModules := segments[:len(segments)-1]

	boundary := -1
	for i, seg := range maybeModules {
		if seg == "" {
			return nil, fmt.Errorf("symtab: malformed symbol name %q", dotted)
		}
		if unicode.IsUpper([]rune(seg)[0]) {
			boundary = i
			break
		}
	}

	moduleName := strings.Join(maybeModules, ".")
	var parents []string
	if boundary >= 0 {
		moduleName = strings.Join(maybeModules[:boundary], ".")
		parents = maybeModules[boundary:]
	}
	if moduleName == "" {
		return nil, fmt.Errorf("symtab: %q has no importable module portion", dotted)
	}

	module, ok := t.modules[moduleName]
	if !ok {
		return nil, &ModuleNotFoundError{Module: moduleName, Symbol: dotted}
	}

	var parent attrProvider = module
	walked := moduleName
	for _, name := range append(parents, symbolName) {
		symbol, ok := parent.Attr(name)
		if !ok {
			return nil, &AttrNotFoundError{Symbol: walked, Attr: name}
		}
		walked = walked + "." + name
		if walked == dotted {
			slog.Debug("Resolved symbol.", "name", dotted)
			t.cache[dotted] = symbol
			return symbol, nil
		}
		parent, ok = symbol.(attrProvider)
		if !ok {
			return nil, &AttrNotFoundError{Symbol: walked, Attr: "(not traversable)"}
		}
	}
	// Unreachable: the loop returns once walked == dotted.
	return nil, &AttrNotFoundError{Symbol: moduleName, Attr: symbolName}
}

// NameOf returns the dotted name a symbol was defined under, if any.
// Functions are matched by code pointer, other symbols by identity.
func (t *Table) NameOf(symbol any) (string, bool) {
	if symbol == nil {
		return "", false
	}
	rv := reflect.ValueOf(symbol)
	if rv.Kind() == reflect.Func {
		name, ok := t.funcNames[rv.Pointer()]
		return name, ok
	}
	name, ok := t.names[symbol]
	return name, ok
}

// BuiltinFunctions returns the cty functions defined in the builtins module,
// keyed by their short names. The map is a copy.
func (t *Table) BuiltinFunctions() map[string]function.Function {
	fns := make(map[string]function.Function)
	b, ok := t.modules["builtins"]
	if !ok {
		return fns
	}
	for name, symbol := range b.symbols {
		if fn, ok := symbol.(function.Function); ok {
			fns[name] = fn
		}
	}
	return fns
}

// index records the reverse mapping from a symbol to its dotted name. Only
// symbol shapes the serializer relocates by name are indexed.
func (t *Table) index(symbol any, dotted string) {
	switch s := symbol.(type) {
	case *Class, *Method, function.Function, reflect.Type:
		t.names[s] = dotted
	default:
		rv := reflect.ValueOf(symbol)
		if rv.Kind() == reflect.Func {
			t.funcNames[rv.Pointer()] = dotted
		}
	}
}

// Resolve resolves a dotted name against the default table.
func Resolve(dotted string) (any, error) {
	return Default.Resolve(dotted)
}

// RegisterModule registers (or returns) a module on the default table.
func RegisterModule(name string) *Module {
	return Default.RegisterModule(name)
}
