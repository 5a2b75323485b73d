package sig

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/zclconf/go-cty/cty"
)

// Body is the executable part of a synthesized callable. It is evaluated
// against a scope holding the bound arguments, the captured globals and
// locals, and the builtin function set.
type Body interface {
	Eval(ctx context.Context, scope *hcl.EvalContext) (cty.Value, error)
}

type nativeBody struct {
	fn func(ctx context.Context, scope *hcl.EvalContext) (cty.Value, error)
}

// NativeBody wraps a Go closure as a callable body.
func NativeBody(fn func(ctx context.Context, scope *hcl.EvalContext) (cty.Value, error)) Body {
	return &nativeBody{fn: fn}
}

func (b *nativeBody) Eval(ctx context.Context, scope *hcl.EvalContext) (cty.Value, error) {
	return b.fn(ctx, scope)
}

// exprBody is a runtime-compiled expression body. Its source survives
// serialization, which is what lets otherwise unreachable callables round
// trip through the wire format.
type exprBody struct {
	src  string
	expr hcl.Expression
}

// ExprBody compiles source lines into an expression body. The lines are
// joined with newlines and must form a single HCL expression over the
// callable's parameter names.
func ExprBody(lines []string) (Body, error) {
	src := strings.Join(lines, "\n")
	expr, diags := hclsyntax.ParseExpression([]byte(src), "<synthesized>", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("sig: compiling body: %s", diags.Error())
	}
	return &exprBody{src: src, expr: expr}, nil
}

func (b *exprBody) Eval(_ context.Context, scope *hcl.EvalContext) (cty.Value, error) {
	v, diags := b.expr.Value(scope)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("sig: evaluating body: %s", diags.Error())
	}
	return v, nil
}

func (b *exprBody) source() string {
	return b.src
}
