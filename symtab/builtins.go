package symtab

import (
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// builtinFuncs is the set of cty stdlib functions exposed under the builtins
// module. These are the only functions serialized under the "builtins."
// prefix, and they are also injected into the evaluation scope of
// expression-bodied callables.
var builtinFuncs = map[string]function.Function{
	"abs":     stdlib.AbsoluteFunc,
	"concat":  stdlib.ConcatFunc,
	"format":  stdlib.FormatFunc,
	"int":     stdlib.IntFunc,
	"join":    stdlib.JoinFunc,
	"lower":   stdlib.LowerFunc,
	"max":     stdlib.MaxFunc,
	"min":     stdlib.MinFunc,
	"reverse": stdlib.ReverseFunc,
	"split":   stdlib.SplitFunc,
	"strlen":  stdlib.StrlenFunc,
	"upper":   stdlib.UpperFunc,
}

func (t *Table) registerBuiltins() {
	b := t.RegisterModule("builtins")
	for name, fn := range builtinFuncs {
		b.Define(name, fn)
	}
}
