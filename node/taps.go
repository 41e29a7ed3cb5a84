package node

import (
	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/value"
)

func registerTaps(r *Registry) {
	r.Register("tapIn", newTapIn)
	r.Register("tapOut", newTapOut)
}

// tapIn copies the most recently promoted shared tap buffer to its
// output at the top of every block (spec §4.6). The buffer handle is
// resolved once, in SetProperty("name", ...), since resource.Map.Tap is
// control-thread only and get-or-create.
type tapIn struct {
	blockSize int
	buf       *resource.Mutable
}

func newTapIn(_ ID, _ float64, blockSize int) Node { return &tapIn{blockSize: blockSize} }

func (n *tapIn) SetProperty(key string, v value.Value, resources *resource.Map) *Error {
	if key != "name" {
		return nil
	}
	name, ok := v.AsString()
	if !ok {
		return NewError(InvalidPropertyType, key)
	}
	n.buf = resources.Tap(name, n.blockSize)
	return nil
}

func (n *tapIn) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if n.buf == nil {
		zero(out)
		return
	}
	copy(out, n.buf.Data[:ctx.NumSamples])
}

func (n *tapIn) ProcessEvents(EmitFunc) {}
func (n *tapIn) Reset()                 {}

// tapOut writes its input into a private delay-line buffer during
// Process; the Renderer promotes that buffer into the shared mutable
// tap resource only after every root has finished rendering for the
// block (spec §4.6), producing the exact one-block feedback delay.
type tapOut struct {
	blockSize int
	name      string
	pending   []float32
	shared    *resource.Mutable
}

func newTapOut(_ ID, _ float64, blockSize int) Node {
	return &tapOut{blockSize: blockSize, pending: make([]float32, blockSize)}
}

func (n *tapOut) SetProperty(key string, v value.Value, resources *resource.Map) *Error {
	if key != "name" {
		return nil
	}
	name, ok := v.AsString()
	if !ok {
		return NewError(InvalidPropertyType, key)
	}
	n.name = name
	n.shared = resources.Tap(name, n.blockSize)
	return nil
}

func (n *tapOut) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		zero(n.pending[:ctx.NumSamples])
		return
	}
	in := ctx.Inputs[0]
	copy(out, in)
	copy(n.pending[:ctx.NumSamples], in)
}

// Promote publishes this block's captured input into the shared tap
// buffer. Called by the Renderer after all roots have run, and skipped
// for tap-outs reachable only from a fading root (spec §4.6).
func (n *tapOut) Promote() {
	if n.shared == nil {
		return
	}
	copy(n.shared.Data, n.pending)
}

func (n *tapOut) ProcessEvents(EmitFunc) {}
func (n *tapOut) Reset() {
	zero(n.pending)
	if n.shared != nil {
		zero(n.shared.Data)
	}
}
