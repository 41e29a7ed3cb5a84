package node

import (
	"sort"

	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/value"
)

func registerSequencers(r *Registry) {
	r.Register("seq", newDenseSeq)
	r.Register("sparseq", newSparseSeq)
}

// denseSeqNode steps through a fixed array of values, one per clock
// rising edge, wrapping at the end; a rising edge on the reset input
// snaps the index back to 0 in the same sample.
type denseSeqNode struct {
	steps     []float32
	index     int
	lastClock float32
	lastReset float32
}

func newDenseSeq(ID, float64, int) Node { return &denseSeqNode{} }

func (n *denseSeqNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key != "steps" {
		return nil
	}
	steps, ok := v.AsFloat32Array()
	if !ok {
		return NewError(InvalidPropertyType, key)
	}
	n.steps = steps
	return nil
}

func (n *denseSeqNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 || len(n.steps) == 0 {
		zero(out)
		return
	}
	clock := ctx.Inputs[0]
	var reset []float32
	if len(ctx.Inputs) > 1 {
		reset = ctx.Inputs[1]
	}
	for i := range out {
		if reset != nil && reset[i] != 0 && n.lastReset == 0 {
			n.index = 0
		}
		if reset != nil {
			n.lastReset = reset[i]
		}
		if clock[i] != 0 && n.lastClock == 0 {
			n.index = (n.index + 1) % len(n.steps)
		}
		n.lastClock = clock[i]
		out[i] = n.steps[n.index]
	}
}

func (n *denseSeqNode) ProcessEvents(EmitFunc) {}
func (n *denseSeqNode) Reset()                 { n.index, n.lastClock, n.lastReset = 0, 0, 0 }

// sparsePoint is one (tick, value) breakpoint.
type sparsePoint struct {
	tick  int
	value float32
}

// sparseSeqNode holds a tick counter advanced by the clock input and
// emits the value of the most recent breakpoint at or before the
// counter. A rising edge on the reset input zeroes the counter in the
// same sample as any simultaneous clock edge, so reset-and-trigger
// yields the breakpoint at tick 0.
type sparseSeqNode struct {
	points    []sparsePoint
	tick      int
	lastClock float32
	lastReset float32
}

func newSparseSeq(ID, float64, int) Node { return &sparseSeqNode{} }

func (n *sparseSeqNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key != "points" {
		return nil
	}
	arr, ok := v.AsArray()
	if !ok {
		return NewError(InvalidPropertyType, key)
	}
	points := make([]sparsePoint, 0, len(arr))
	for _, e := range arr {
		pair, ok := e.AsArray()
		if !ok || len(pair) != 2 {
			return NewError(InvalidPropertyValue, key)
		}
		t, ok1 := pair[0].AsNumber()
		v, ok2 := pair[1].AsNumber()
		if !ok1 || !ok2 {
			return NewError(InvalidPropertyValue, key)
		}
		points = append(points, sparsePoint{tick: int(t), value: float32(v)})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].tick < points[j].tick })
	n.points = points
	return nil
}

func (n *sparseSeqNode) valueAt(tick int) float32 {
	var out float32
	for _, p := range n.points {
		if p.tick > tick {
			break
		}
		out = p.value
	}
	return out
}

func (n *sparseSeqNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	clock := ctx.Inputs[0]
	var reset []float32
	if len(ctx.Inputs) > 1 {
		reset = ctx.Inputs[1]
	}
	for i := range out {
		resetFired := reset != nil && reset[i] != 0 && n.lastReset == 0
		if reset != nil {
			n.lastReset = reset[i]
		}
		if resetFired {
			n.tick = 0
		} else if clock[i] != 0 && n.lastClock == 0 {
			n.tick++
		}
		n.lastClock = clock[i]
		out[i] = n.valueAt(n.tick)
	}
}

func (n *sparseSeqNode) ProcessEvents(EmitFunc) {}
func (n *sparseSeqNode) Reset()                 { n.tick, n.lastClock, n.lastReset = 0, 0, 0 }
