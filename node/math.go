package node

import (
	"math"

	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/value"
)

// identityNode copies its single input to its output unchanged, or
// zeroes if no input is wired.
type identityNode struct{}

func (identityNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (identityNode) Process(ctx *Context) {
	if len(ctx.Inputs) == 0 {
		zero(ctx.Outputs[0])
		return
	}
	copy(ctx.Outputs[0], ctx.Inputs[0])
}

func (identityNode) ProcessEvents(EmitFunc) {}
func (identityNode) Reset()                 {}

// constNode emits a fixed scalar on every sample, set via the "value"
// property.
type constNode struct {
	v float64
}

func newConst(ID, float64, int) Node { return &constNode{} }

func (n *constNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key != "value" {
		return nil
	}
	f, ok := v.AsNumber()
	if !ok {
		return NewError(InvalidPropertyType, key)
	}
	n.v = f
	return nil
}

func (n *constNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	for i := range out {
		out[i] = float32(n.v)
	}
}

func (n *constNode) ProcessEvents(EmitFunc) {}
func (n *constNode) Reset()                 {}

// unaryOp is a single-input reducing function.
type unaryOp func(float64) float64

// binaryOp combines two inputs per sample.
type binaryOp func(a, b float64) float64

// naryOp reduces an arbitrary number of inputs per sample; identity
// seeds the accumulator before the first input is combined.
type naryOp struct {
	identity float64
	combine  func(acc, x float64) float64
}

var unaryOps = map[string]unaryOp{
	"abs":   math.Abs,
	"sqrt":  math.Sqrt,
	"neg":   func(a float64) float64 { return -a },
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"not":   func(a float64) float64 { return boolToF(a == 0) },
}

var binaryOps = map[string]binaryOp{
	"sub":  func(a, b float64) float64 { return a - b },
	"div":  func(a, b float64) float64 { return a / b },
	"mod":  math.Mod,
	"pow":  math.Pow,
	"gt":   func(a, b float64) float64 { return boolToF(a > b) },
	"ge":   func(a, b float64) float64 { return boolToF(a >= b) },
	"lt":   func(a, b float64) float64 { return boolToF(a < b) },
	"le":   func(a, b float64) float64 { return boolToF(a <= b) },
	"eq":   func(a, b float64) float64 { return boolToF(a == b) },
	"ne":   func(a, b float64) float64 { return boolToF(a != b) },
	"and":  func(a, b float64) float64 { return boolToF(a != 0 && b != 0) },
	"or":   func(a, b float64) float64 { return boolToF(a != 0 || b != 0) },
}

var naryOps = map[string]naryOp{
	"add": {identity: 0, combine: func(acc, x float64) float64 { return acc + x }},
	"mul": {identity: 1, combine: func(acc, x float64) float64 { return acc * x }},
	"min": {identity: math.Inf(1), combine: math.Min},
	"max": {identity: math.Inf(-1), combine: math.Max},
}

func boolToF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// unaryMathNode applies a fixed unary function to its single input.
type unaryMathNode struct {
	op unaryOp
}

func newUnaryMath(name string) Factory {
	op := unaryOps[name]
	return func(ID, float64, int) Node { return &unaryMathNode{op: op} }
}

func (n *unaryMathNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (n *unaryMathNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	for i := range out {
		out[i] = float32(n.op(float64(in[i])))
	}
}

func (n *unaryMathNode) ProcessEvents(EmitFunc) {}
func (n *unaryMathNode) Reset()                 {}

// binaryMathNode applies a fixed binary function to exactly two inputs.
type binaryMathNode struct {
	op binaryOp
}

func newBinaryMath(name string) Factory {
	op := binaryOps[name]
	return func(ID, float64, int) Node { return &binaryMathNode{op: op} }
}

func (n *binaryMathNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (n *binaryMathNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) < 2 {
		zero(out)
		return
	}
	a, b := ctx.Inputs[0], ctx.Inputs[1]
	for i := range out {
		out[i] = float32(n.op(float64(a[i]), float64(b[i])))
	}
}

func (n *binaryMathNode) ProcessEvents(EmitFunc) {}
func (n *binaryMathNode) Reset()                 {}

// naryMathNode reduces an arbitrary-arity fan-in with a commutative
// binary combine, used for the "add", "mul", "min", "max" kinds (spec
// §4.4: "N-ary reducing math").
type naryMathNode struct {
	op naryOp
}

func newNaryMath(name string) Factory {
	op := naryOps[name]
	return func(ID, float64, int) Node { return &naryMathNode{op: op} }
}

func (n *naryMathNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (n *naryMathNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	for i := range out {
		acc := n.op.identity
		for _, in := range ctx.Inputs {
			acc = n.op.combine(acc, float64(in[i]))
		}
		out[i] = float32(acc)
	}
}

func (n *naryMathNode) ProcessEvents(EmitFunc) {}
func (n *naryMathNode) Reset()                 {}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

// RegisterBuiltins seeds r with the minimum kind set from spec §4.4.
func RegisterBuiltins(r *Registry) {
	r.Register("identity", func(ID, float64, int) Node { return identityNode{} })
	r.Register("const", newConst)

	for name := range unaryOps {
		r.Register(name, newUnaryMath(name))
	}
	for name := range binaryOps {
		r.Register(name, newBinaryMath(name))
	}
	for name := range naryOps {
		r.Register(name, newNaryMath(name))
	}

	registerGenerators(r)
	registerFilters(r)
	registerSequencers(r)
	registerTaps(r)
	registerAnalyzers(r)
	registerSamplers(r)
	r.Register("root", newRoot)
}
