package node

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/elemaudio/audiograph/internal/queue"
	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/internal/ringbuf"
	"github.com/elemaudio/audiograph/value"
)

func registerAnalyzers(r *Registry) {
	r.Register("meter", newMeter)
	r.Register("scope", newScope)
	r.Register("snapshot", newSnapshot)
	r.Register("capture", newCapture)
	r.Register("fft", newFFT)
}

// eventQueueCapacity bounds the per-node scalar-event SPSC used by meter
// and snapshot. Both emit at most once per block (meter) or once per
// gate edge within a block (snapshot), so a handful of blocks of slack
// is ample headroom for a control thread that falls behind momentarily.
const eventQueueCapacity = 16

// ringHeadroomBlocks gives every framing ring a couple of blocks' worth
// of slack beyond its window size so a control thread that drains once
// per block, slightly out of phase with Process, doesn't trip the
// producer-wins overflow drop under ordinary scheduling jitter.
const ringHeadroomBlocks = 2

// analyzerBase is embedded by every analyzer kind: it owns the "name"
// property (the event payload's source identifier, spec §6). emit wraps
// a data value in the {"source", "data"} event object — it is only ever
// called from ProcessEvents (control thread), never from Process, so
// the map allocation it does never lands on the realtime thread (spec
// §1, §4.4: Process must not allocate).
type analyzerBase struct {
	name string
	kind string
}

func newAnalyzerBase(kind string) analyzerBase {
	return analyzerBase{kind: kind}
}

func (a *analyzerBase) setName(v value.Value) *Error {
	name, ok := v.AsString()
	if !ok {
		return NewError(InvalidPropertyType, "name")
	}
	a.name = name
	return nil
}

func (a *analyzerBase) emit(cb EmitFunc, data value.Value) {
	cb(a.kind, value.Object(map[string]value.Value{
		"source": value.String(a.name),
		"data":   data,
	}))
}

// meterNode emits one "meter" event per block carrying the block's peak
// absolute sample value. Process only ever pushes a raw float32 onto a
// pre-allocated SPSC; the event object is built in ProcessEvents.
type meterNode struct {
	analyzerBase
	peaks *queue.SPSC[float32]
}

func newMeter(ID, float64, int) Node {
	return &meterNode{analyzerBase: newAnalyzerBase("meter"), peaks: queue.NewSPSC[float32](eventQueueCapacity)}
}

func (n *meterNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key == "name" {
		return n.setName(v)
	}
	return nil
}

func (n *meterNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	copy(out, in)

	var peak float32
	for _, s := range in {
		if a := abs32(s); a > peak {
			peak = a
		}
	}
	_ = n.peaks.Enqueue(&peak) // producer-wins: drop on a full queue
}

func (n *meterNode) ProcessEvents(emit EmitFunc) {
	for {
		peak, err := n.peaks.Dequeue()
		if err != nil {
			return
		}
		n.emit(emit, value.Number(float64(peak)))
	}
}

func (n *meterNode) Reset() {}

// scopeNode emits one "scope" event per block carrying the entire
// block's waveform. Process frames the block into a pre-allocated ring;
// ProcessEvents drains completed blocks and builds the event payload.
type scopeNode struct {
	analyzerBase
	ring      *ringbuf.RingBuffer
	blockSize int
}

func newScope(_ ID, _ float64, blockSize int) Node {
	return &scopeNode{
		analyzerBase: newAnalyzerBase("scope"),
		ring:         ringbuf.New(1, blockSize*ringHeadroomBlocks),
		blockSize:    blockSize,
	}
}

func (n *scopeNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key == "name" {
		return n.setName(v)
	}
	return nil
}

func (n *scopeNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	copy(out, in)
	n.ring.Write([][]float32{in}) // producer-wins: drop the block if the control thread is behind
}

func (n *scopeNode) ProcessEvents(emit EmitFunc) {
	for n.ring.Available() >= n.blockSize {
		frame := make([]float32, n.blockSize)
		if !n.ring.Read([][]float32{frame}, n.blockSize) {
			return
		}
		n.emit(emit, value.Float32Array(frame))
	}
}

func (n *scopeNode) Reset() { n.ring.Reset() }

// snapshotNode emits one "snapshot" event per rising edge of its gate
// input, carrying the instantaneous value of input[0].
type snapshotNode struct {
	analyzerBase
	lastGate float32
	values   *queue.SPSC[float32]
}

func newSnapshot(ID, float64, int) Node {
	return &snapshotNode{analyzerBase: newAnalyzerBase("snapshot"), values: queue.NewSPSC[float32](eventQueueCapacity)}
}

func (n *snapshotNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key == "name" {
		return n.setName(v)
	}
	return nil
}

func (n *snapshotNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) < 2 {
		zero(out)
		return
	}
	signal, gate := ctx.Inputs[0], ctx.Inputs[1]
	copy(out, signal)
	for i := range signal {
		if gate[i] != 0 && n.lastGate == 0 {
			v := signal[i]
			_ = n.values.Enqueue(&v)
		}
		n.lastGate = gate[i]
	}
}

func (n *snapshotNode) ProcessEvents(emit EmitFunc) {
	for {
		v, err := n.values.Dequeue()
		if err != nil {
			return
		}
		n.emit(emit, value.Number(float64(v)))
	}
}

func (n *snapshotNode) Reset() { n.lastGate = 0 }

// captureDefaultLength is the window size a capture node starts with
// before any "length" property is set.
const captureDefaultLength = 4096

// captureNode accumulates input samples into a fixed-length window
// (sized by the "length" property, in samples) and emits one "capture"
// event with the full window once it fills, then starts over. Framing
// happens through a pre-allocated ring so Process never allocates;
// ProcessEvents drains completed windows and builds the event payload.
type captureNode struct {
	analyzerBase
	ring      *ringbuf.RingBuffer
	length    int
	blockSize int
}

func newCapture(_ ID, _ float64, blockSize int) Node {
	n := &captureNode{analyzerBase: newAnalyzerBase("capture"), length: captureDefaultLength, blockSize: blockSize}
	n.ring = ringbuf.New(1, n.length+n.blockSize*ringHeadroomBlocks)
	return n
}

func (n *captureNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	switch key {
	case "name":
		return n.setName(v)
	case "length":
		f, ok := v.AsNumber()
		if !ok || f < 1 {
			return NewError(InvalidPropertyValue, key)
		}
		n.length = int(f)
		n.ring = ringbuf.New(1, n.length+n.blockSize*ringHeadroomBlocks)
	}
	return nil
}

func (n *captureNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	copy(out, in)
	n.ring.Write([][]float32{in})
}

func (n *captureNode) ProcessEvents(emit EmitFunc) {
	for n.ring.Available() >= n.length {
		window := make([]float32, n.length)
		if !n.ring.Read([][]float32{window}, n.length) {
			return
		}
		n.emit(emit, value.Float32Array(window))
	}
}

func (n *captureNode) Reset() { n.ring.Reset() }

// fftWindowSize is the fixed analysis window fft accumulates before
// running a transform.
const fftWindowSize = 1024

// fftNode frames input samples through a pre-allocated ring (spec §4.2:
// "the fft node's input framing buffer ahead of the gonum transform")
// and, once a full window is available, runs gonum's real-input FFT and
// emits the magnitude spectrum. Window extraction and the transform
// happen in ProcessEvents; Process only ever copies into the ring.
type fftNode struct {
	analyzerBase
	fft  *fourier.FFT
	ring *ringbuf.RingBuffer
}

func newFFT(_ ID, _ float64, blockSize int) Node {
	return &fftNode{
		analyzerBase: newAnalyzerBase("fft"),
		fft:          fourier.NewFFT(fftWindowSize),
		ring:         ringbuf.New(1, fftWindowSize+blockSize*ringHeadroomBlocks),
	}
}

func (n *fftNode) SetProperty(key string, v value.Value, _ *resource.Map) *Error {
	if key == "name" {
		return n.setName(v)
	}
	return nil
}

func (n *fftNode) Process(ctx *Context) {
	out := ctx.Outputs[0]
	if len(ctx.Inputs) == 0 {
		zero(out)
		return
	}
	in := ctx.Inputs[0]
	copy(out, in)
	n.ring.Write([][]float32{in})
}

func (n *fftNode) ProcessEvents(emit EmitFunc) {
	for n.ring.Available() >= fftWindowSize {
		window := make([]float32, fftWindowSize)
		if !n.ring.Read([][]float32{window}, fftWindowSize) {
			return
		}
		n.runFFT(window, emit)
	}
}

func (n *fftNode) runFFT(window []float32, emit EmitFunc) {
	real := make([]float64, fftWindowSize)
	for i, s := range window {
		real[i] = float64(s)
	}
	coeff := n.fft.Coefficients(nil, real)

	mags := make([]float32, len(coeff))
	for i, c := range coeff {
		mags[i] = float32(cmplx.Abs(c))
	}
	n.emit(emit, value.Float32Array(mags))
}

func (n *fftNode) Reset() { n.ring.Reset() }

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
