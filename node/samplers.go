package node

import (
	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/value"
)

func registerSamplers(r *Registry) {
	r.Register("sampler", newSampler)
	r.Register("sseq", newSampleSeq)
	r.Register("table", newTable)
}

// samplerNode plays back a named shared Immutable buffer (mono, channel
// 0) starting over on every rising edge of the trigger input, at a rate
// set by the "rate" property (resampled by linear interpolation).
type samplerNode struct {
	buf      *resource.Immutable
	rate     float64
	readPos  float64
	lastTrig float32
}

func newSampler(ID, float64, int) Node { return &samplerNode{rate: 1.0, readPos: -1} }

func (n *samplerNode) SetProperty(key string, v value.Value, resources *resource.Map) *Error {
	switch key {
	case "resource":
		name, ok := v.AsString()
		if !ok {
			return NewError(InvalidPropertyType, key)
		}
		h, ok := resources.Lookup(name)
		if !ok {
			return NewError(InvalidPropertyValue, key)
		}
		if n.buf != nil {
			n.buf.Release()
		}
		h.Borrow()
		n.buf = h
		n.readPos = -1
	case "rate":
		f, ok := v.AsNumber()
		if !ok {
			return NewError(InvalidPropertyType, key)
		}
		n.rate = f
	}
	return nil
}

func (n *samplerNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if n.buf == nil || len(n.buf.Channels) == 0 {
		zero(out)
		return
	}
	samples := n.buf.Channels[0]

	var trig []float32
	if len(ctx.Inputs) > 0 {
		trig = ctx.Inputs[0]
	}
	for i := range out {
		if trig != nil && trig[i] != 0 && n.lastTrig == 0 {
			n.readPos = 0
		}
		if trig != nil {
			n.lastTrig = trig[i]
		}
		if n.readPos < 0 || int(n.readPos) >= len(samples)-1 {
			out[i] = 0
			continue
		}
		out[i] = lerpSample(samples, n.readPos)
		n.readPos += n.rate
	}
}

func lerpSample(samples []float32, pos float64) float32 {
	i0 := int(pos)
	frac := float32(pos - float64(i0))
	s0 := samples[i0]
	s1 := s0
	if i0+1 < len(samples) {
		s1 = samples[i0+1]
	}
	return s0 + frac*(s1-s0)
}

func (n *samplerNode) ProcessEvents(EmitFunc) {}
func (n *samplerNode) Reset()                 { n.readPos = -1; n.lastTrig = 0 }

// sampleSeqNode retriggers a shared sample buffer at a new read offset
// on every clock rising edge, cycling through a fixed list of offsets
// (spec §4.4: "sample-sequencer").
type sampleSeqNode struct {
	buf       *resource.Immutable
	offsets   []float32
	step      int
	readPos   float64
	lastClock float32
}

func newSampleSeq(ID, float64, int) Node { return &sampleSeqNode{readPos: -1} }

func (n *sampleSeqNode) SetProperty(key string, v value.Value, resources *resource.Map) *Error {
	switch key {
	case "resource":
		name, ok := v.AsString()
		if !ok {
			return NewError(InvalidPropertyType, key)
		}
		h, ok := resources.Lookup(name)
		if !ok {
			return NewError(InvalidPropertyValue, key)
		}
		if n.buf != nil {
			n.buf.Release()
		}
		h.Borrow()
		n.buf = h
	case "offsets":
		offsets, ok := v.AsFloat32Array()
		if !ok {
			return NewError(InvalidPropertyType, key)
		}
		n.offsets = offsets
	}
	return nil
}

func (n *sampleSeqNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if n.buf == nil || len(n.buf.Channels) == 0 || len(n.offsets) == 0 || len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	samples := n.buf.Channels[0]
	clock := ctx.Inputs[0]
	for i := range out {
		if clock[i] != 0 && n.lastClock == 0 {
			n.step = (n.step + 1) % len(n.offsets)
			n.readPos = float64(n.offsets[n.step])
		}
		n.lastClock = clock[i]
		if n.readPos < 0 || int(n.readPos) >= len(samples)-1 {
			out[i] = 0
			continue
		}
		out[i] = lerpSample(samples, n.readPos)
		n.readPos++
	}
}

func (n *sampleSeqNode) ProcessEvents(EmitFunc) {}
func (n *sampleSeqNode) Reset()                 { n.step, n.readPos, n.lastClock = 0, -1, 0 }

// tableNode is a wavetable lookup: input[0] is phase in [0,1), "table"
// is the fixed waveform data, read with linear interpolation and wrap.
type tableNode struct {
	table []float32
}

func newTable(ID, float64, int) Node { return &tableNode{} }

func (n *tableNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key != "table" {
		return nil
	}
	table, ok := v.AsFloat32Array()
	if !ok || len(table) < 2 {
		return NewError(InvalidPropertyValue, key)
	}
	n.table = table
	return nil
}

func (n *tableNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(n.table) == 0 || len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	phase := ctx.Inputs[0]
	size := len(n.table)
	for i := range out {
		p := float64(phase[i])
		p -= float64(int(p))
		if p < 0 {
			p++
		}
		pos := p * float64(size)
		i0 := int(pos) % size
		i1 := (i0 + 1) % size
		frac := float32(pos - float64(int(pos)))
		out[i] = n.table[i0] + frac*(n.table[i1]-n.table[i0])
	}
}

func (n *tableNode) ProcessEvents(EmitFunc) {}
func (n *tableNode) Reset()                 {}
