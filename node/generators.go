package node

import (
	"math"
	"math/rand"

	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/value"
)

func registerGenerators(r *Registry) {
	r.Register("phasor", newPhasor)
	r.Register("sr", newSampleRate)
	r.Register("counter", newCounter)
	r.Register("accum", newAccum)
	r.Register("latch", newLatch)
	r.Register("maxhold", newMaxHold)
	r.Register("once", newOnce)
	r.Register("noise", newNoise)
	r.Register("metro", newMetro)
}

// phasorNode ramps 0..1 at a given Hz rate, wrapping.
type phasorNode struct {
	sampleRate float64
	rate       float64
	phase      float64
}

func newPhasor(_ ID, sampleRate float64, _ int) Node {
	return &phasorNode{sampleRate: sampleRate}
}

func (n *phasorNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key != "rate" {
		return nil
	}
	f, ok := v.AsNumber()
	if !ok {
		return NewError(InvalidPropertyType, key)
	}
	n.rate = f
	return nil
}

func (n *phasorNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	step := n.rate / n.sampleRate
	for i := range out {
		out[i] = float32(n.phase)
		n.phase += step
		if n.phase >= 1 {
			n.phase -= math.Floor(n.phase)
		}
	}
}

func (n *phasorNode) ProcessEvents(EmitFunc) {}
func (n *phasorNode) Reset()                 { n.phase = 0 }

// sampleRateNode emits the engine sample rate as a constant.
type sampleRateNode struct{ sampleRate float64 }

func newSampleRate(_ ID, sampleRate float64, _ int) Node { return &sampleRateNode{sampleRate} }

func (n *sampleRateNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (n *sampleRateNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	for i := range out {
		out[i] = float32(n.sampleRate)
	}
}

func (n *sampleRateNode) ProcessEvents(EmitFunc) {}
func (n *sampleRateNode) Reset()                 {}

// counterNode increments by 1 on every rising edge of its clock input.
type counterNode struct {
	count    float64
	lastGate float32
}

func newCounter(ID, float64, int) Node { return &counterNode{} }

func (n *counterNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (n *counterNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	clock := ctx.Inputs[0]
	for i := range out {
		if clock[i] != 0 && n.lastGate == 0 {
			n.count++
		}
		n.lastGate = clock[i]
		out[i] = float32(n.count)
	}
}

func (n *counterNode) ProcessEvents(EmitFunc) {}
func (n *counterNode) Reset()                 { n.count, n.lastGate = 0, 0 }

// accumNode sums its input continuously, sample by sample.
type accumNode struct{ sum float64 }

func newAccum(ID, float64, int) Node { return &accumNode{} }

func (n *accumNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (n *accumNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	for i := range out {
		n.sum += float64(in[i])
		out[i] = float32(n.sum)
	}
}

func (n *accumNode) ProcessEvents(EmitFunc) {}
func (n *accumNode) Reset()                 { n.sum = 0 }

// latchNode holds input[0] at the moment input[1] (the gate) rises.
type latchNode struct {
	held     float32
	lastGate float32
}

func newLatch(ID, float64, int) Node { return &latchNode{} }

func (n *latchNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (n *latchNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) < 2 {
		zero(out)
		return
	}
	signal, gate := ctx.Inputs[0], ctx.Inputs[1]
	for i := range out {
		if gate[i] != 0 && n.lastGate == 0 {
			n.held = signal[i]
		}
		n.lastGate = gate[i]
		out[i] = n.held
	}
}

func (n *latchNode) ProcessEvents(EmitFunc) {}
func (n *latchNode) Reset()                 { n.held, n.lastGate = 0, 0 }

// maxHoldNode tracks the running maximum of input[0], resettable on a
// rising edge of input[1].
type maxHoldNode struct {
	max       float32
	lastReset float32
	have      bool
}

func newMaxHold(ID, float64, int) Node { return &maxHoldNode{} }

func (n *maxHoldNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (n *maxHoldNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	var reset []float32
	if len(ctx.Inputs) > 1 {
		reset = ctx.Inputs[1]
	}
	for i := range out {
		if reset != nil && reset[i] != 0 && n.lastReset == 0 {
			n.have = false
		}
		if reset != nil {
			n.lastReset = reset[i]
		}
		if !n.have || in[i] > n.max {
			n.max = in[i]
			n.have = true
		}
		out[i] = n.max
	}
}

func (n *maxHoldNode) ProcessEvents(EmitFunc) {}
func (n *maxHoldNode) Reset()                 { n.max, n.lastReset, n.have = 0, 0, false }

// onceNode passes its input through only on the first sample after
// each rising edge of the trigger input, zero otherwise.
type onceNode struct {
	lastTrig float32
	armed    bool
}

func newOnce(ID, float64, int) Node { return &onceNode{} }

func (n *onceNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (n *onceNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) < 2 {
		zero(out)
		return
	}
	signal, trig := ctx.Inputs[0], ctx.Inputs[1]
	for i := range out {
		fired := trig[i] != 0 && n.lastTrig == 0
		n.lastTrig = trig[i]
		if fired {
			out[i] = signal[i]
		} else {
			out[i] = 0
		}
	}
}

func (n *onceNode) ProcessEvents(EmitFunc) {}
func (n *onceNode) Reset()                 { n.lastTrig = 0 }

// noiseNode emits uniform white noise in [-1, 1), deterministically
// seeded from its node id so runs are reproducible.
type noiseNode struct{ rng *rand.Rand }

func newNoise(id ID, _ float64, _ int) Node {
	return &noiseNode{rng: rand.New(rand.NewSource(int64(id) + 1))}
}

func (n *noiseNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (n *noiseNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	for i := range out {
		out[i] = float32(n.rng.Float64()*2 - 1)
	}
}

func (n *noiseNode) ProcessEvents(EmitFunc) {}
func (n *noiseNode) Reset()                 {}

// metroNode emits a single-sample impulse every "interval" seconds.
type metroNode struct {
	sampleRate float64
	interval   float64
	phase      float64
}

func newMetro(_ ID, sampleRate float64, _ int) Node {
	return &metroNode{sampleRate: sampleRate, interval: 1.0}
}

func (n *metroNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key != "interval" {
		return nil
	}
	f, ok := v.AsNumber()
	if !ok {
		return NewError(InvalidPropertyType, key)
	}
	n.interval = f
	return nil
}

func (n *metroNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	period := n.interval * n.sampleRate
	for i := range out {
		if n.phase <= 0 {
			out[i] = 1
			n.phase += period
		} else {
			out[i] = 0
		}
		n.phase--
	}
}

func (n *metroNode) ProcessEvents(EmitFunc) {}
func (n *metroNode) Reset()                 { n.phase = 0 }
