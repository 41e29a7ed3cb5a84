package node

import (
	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/value"
)

// rootNode is the distinguished kind that owns an output-channel index
// and activation flag (spec §3). Activation and gain live in
// internal/store.RootState, read by the Scheduler and advanced by the
// Renderer; the node itself only passes its single input through,
// mirroring the "outputChannel" property for Snapshot.
type rootNode struct {
	outputChannel float64
}

func newRoot(ID, float64, int) Node { return &rootNode{outputChannel: -1} }

func (n *rootNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key != "outputChannel" {
		return nil
	}
	f, ok := v.AsNumber()
	if !ok {
		return NewError(InvalidPropertyType, key)
	}
	n.outputChannel = f
	return nil
}

func (n *rootNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	copy(out, ctx.Inputs[0])
}

func (n *rootNode) ProcessEvents(EmitFunc) {}
func (n *rootNode) Reset()                 {}
