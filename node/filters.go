package node

import (
	"math"

	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/value"
)

func registerFilters(r *Registry) {
	r.Register("delay", newDelay)
	r.Register("sdelay", newSampleDelay)
	r.Register("z", newZ)
	r.Register("pole", newOnePole)
	r.Register("adsr", newADSR)
	r.Register("biquad", newBiquad)
	r.Register("svf", newSVF)
}

// delayNode is a variable-length delay line; input[1] carries the
// current delay time in samples, read fresh every sample.
type delayNode struct {
	line []float32
	pos  int
	max  int
}

func newDelay(_ ID, sampleRate float64, _ int) Node {
	return &delayNode{line: make([]float32, int(sampleRate)*2), max: int(sampleRate) * 2}
}

func (n *delayNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key != "maxDelaySamples" {
		return nil
	}
	f, ok := v.AsNumber()
	if !ok {
		return NewError(InvalidPropertyType, key)
	}
	if int(f) > n.max {
		grown := make([]float32, int(f))
		copy(grown, n.line)
		n.line = grown
		n.max = int(f)
	}
	return nil
}

func (n *delayNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	var delaySamples []float32
	if len(ctx.Inputs) > 1 {
		delaySamples = ctx.Inputs[1]
	}
	for i := range out {
		d := 1
		if delaySamples != nil {
			d = int(delaySamples[i])
		}
		if d < 0 {
			d = 0
		}
		if d >= n.max {
			d = n.max - 1
		}
		readPos := (n.pos - d + n.max) % n.max
		out[i] = n.line[readPos]
		n.line[n.pos] = in[i]
		n.pos = (n.pos + 1) % n.max
	}
}

func (n *delayNode) ProcessEvents(EmitFunc) {}
func (n *delayNode) Reset() {
	for i := range n.line {
		n.line[i] = 0
	}
	n.pos = 0
}

// sampleDelayNode is a fixed integer-sample delay set via the
// "delaySamples" property.
type sampleDelayNode struct {
	line []float32
	pos  int
}

func newSampleDelay(ID, float64, int) Node { return &sampleDelayNode{line: []float32{0}} }

func (n *sampleDelayNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key != "delaySamples" {
		return nil
	}
	f, ok := v.AsNumber()
	if !ok || f < 1 {
		return NewError(InvalidPropertyValue, key)
	}
	n.line = make([]float32, int(f))
	n.pos = 0
	return nil
}

func (n *sampleDelayNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	for i := range out {
		out[i] = n.line[n.pos]
		n.line[n.pos] = in[i]
		n.pos = (n.pos + 1) % len(n.line)
	}
}

func (n *sampleDelayNode) ProcessEvents(EmitFunc) {}
func (n *sampleDelayNode) Reset() {
	for i := range n.line {
		n.line[i] = 0
	}
	n.pos = 0
}

// zNode is the single-sample delay z^-1: output at sample i is the
// input from sample i-1 (0 on the very first sample after Reset).
type zNode struct{ prev float32 }

func newZ(ID, float64, int) Node { return &zNode{} }

func (n *zNode) SetProperty(string, value.Value, *resource.Map) *Error { return nil }

func (n *zNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	for i := range out {
		out[i] = n.prev
		n.prev = in[i]
	}
}

func (n *zNode) ProcessEvents(EmitFunc) {}
func (n *zNode) Reset()                 { n.prev = 0 }

// onePoleNode is y[n] = y[n-1] + a*(x[n]-y[n-1]), a set via "pole".
type onePoleNode struct {
	a, y float64
}

func newOnePole(ID, float64, int) Node { return &onePoleNode{a: 0.5} }

func (n *onePoleNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key != "pole" {
		return nil
	}
	f, ok := v.AsNumber()
	if !ok {
		return NewError(InvalidPropertyType, key)
	}
	n.a = f
	return nil
}

func (n *onePoleNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	for i := range out {
		n.y += n.a * (float64(in[i]) - n.y)
		out[i] = float32(n.y)
	}
}

func (n *onePoleNode) ProcessEvents(EmitFunc) {}
func (n *onePoleNode) Reset()                 { n.y = 0 }

// adsrNode is a gate-triggered attack/decay/sustain/release envelope,
// with stage times in seconds and sustain a level in [0,1].
type adsrNode struct {
	sampleRate                     float64
	attack, decay, sustain, release float64
	stage                          adsrStage
	level                          float64
	lastGate                       float32
}

type adsrStage int

const (
	adsrIdle adsrStage = iota
	adsrAttack
	adsrDecay
	adsrSustain
	adsrRelease
)

func newADSR(_ ID, sampleRate float64, _ int) Node {
	return &adsrNode{sampleRate: sampleRate, attack: 0.01, decay: 0.1, sustain: 0.7, release: 0.2}
}

func (n *adsrNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	f, ok := v.AsNumber()
	if !ok {
		return nil
	}
	switch key {
	case "attack":
		n.attack = f
	case "decay":
		n.decay = f
	case "sustain":
		n.sustain = f
	case "release":
		n.release = f
	}
	return nil
}

func (n *adsrNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	gate := ctx.Inputs[0]
	for i := range out {
		g := gate[i]
		if g != 0 && n.lastGate == 0 {
			n.stage = adsrAttack
		} else if g == 0 && n.lastGate != 0 {
			n.stage = adsrRelease
		}
		n.lastGate = g

		switch n.stage {
		case adsrAttack:
			n.level += 1.0 / math.Max(1, n.attack*n.sampleRate)
			if n.level >= 1 {
				n.level = 1
				n.stage = adsrDecay
			}
		case adsrDecay:
			n.level -= (1 - n.sustain) / math.Max(1, n.decay*n.sampleRate)
			if n.level <= n.sustain {
				n.level = n.sustain
				n.stage = adsrSustain
			}
		case adsrSustain:
			n.level = n.sustain
		case adsrRelease:
			n.level -= n.sustain / math.Max(1, n.release*n.sampleRate)
			if n.level <= 0 {
				n.level = 0
				n.stage = adsrIdle
			}
		}
		out[i] = float32(n.level)
	}
}

func (n *adsrNode) ProcessEvents(EmitFunc) {}
func (n *adsrNode) Reset()                 { n.stage, n.level, n.lastGate = adsrIdle, 0, 0 }

// biquadNode is a direct-form-II-transposed biquad with coefficients
// set as a single Float32Array property [b0,b1,b2,a1,a2].
type biquadNode struct {
	b0, b1, b2, a1, a2 float64
	z1, z2             float64
}

func newBiquad(ID, float64, int) Node { return &biquadNode{b0: 1} }

func (n *biquadNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key != "coeffs" {
		return nil
	}
	coeffs, ok := v.AsFloat32Array()
	if !ok || len(coeffs) != 5 {
		return NewError(InvalidPropertyValue, key)
	}
	n.b0, n.b1, n.b2 = float64(coeffs[0]), float64(coeffs[1]), float64(coeffs[2])
	n.a1, n.a2 = float64(coeffs[3]), float64(coeffs[4])
	return nil
}

func (n *biquadNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	for i := range out {
		x := float64(in[i])
		y := n.b0*x + n.z1
		n.z1 = n.b1*x - n.a1*y + n.z2
		n.z2 = n.b2*x - n.a2*y
		out[i] = float32(y)
	}
}

func (n *biquadNode) ProcessEvents(EmitFunc) {}
func (n *biquadNode) Reset()                 { n.z1, n.z2 = 0, 0 }

// svfNode is a Chamberlin state-variable filter, lowpass output only.
type svfNode struct {
	sampleRate      float64
	cutoff, q       float64
	low, band       float64
}

func newSVF(_ ID, sampleRate float64, _ int) Node {
	return &svfNode{sampleRate: sampleRate, cutoff: 1000, q: 0.707}
}

func (n *svfNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	f, ok := v.AsNumber()
	if !ok {
		return nil
	}
	switch key {
	case "cutoff":
		n.cutoff = f
	case "q":
		n.q = f
	}
	return nil
}

func (n *svfNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	f := 2 * math.Sin(math.Pi*n.cutoff/n.sampleRate)
	damp := 1 / math.Max(0.1, n.q)
	for i := range out {
		high := float64(in[i]) - n.low - damp*n.band
		n.band += f * high
		n.low += f * n.band
		out[i] = float32(n.low)
	}
}

func (n *svfNode) ProcessEvents(EmitFunc) {}
func (n *svfNode) Reset()                 { n.low, n.band = 0, 0 }
