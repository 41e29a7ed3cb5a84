// Package render implements the Renderer (spec §4.7): the realtime
// thread's per-block entry point. It never allocates, locks, or blocks —
// the schedule it runs was fully pre-allocated by the control thread's
// Scheduler pass.
package render

import (
	"unsafe"

	"github.com/elemaudio/audiograph/internal/queue"
	"github.com/elemaudio/audiograph/internal/schedule"
	"github.com/elemaudio/audiograph/node"
)

// scheduleQueueCapacity need only hold the most recent handoff (spec
// §4.1), but a small amount of slack avoids a transient push failure
// if the control thread commits twice in one block window.
const scheduleQueueCapacity = 4

// Renderer owns the live schedule pointer and the per-block mix loop.
type Renderer struct {
	blockSize  int
	numOutputs int
	sampleRate float64

	schedules *queue.SPSCPtr
	current   *schedule.Schedule
	ctx       node.Context // reused for every op of every block
}

// New returns a Renderer for the given engine configuration.
func New(numOutputs, blockSize int, sampleRate float64) *Renderer {
	return &Renderer{
		blockSize:  blockSize,
		numOutputs: numOutputs,
		sampleRate: sampleRate,
		schedules:  queue.NewSPSCPtr(scheduleQueueCapacity),
	}
}

// PushSchedule hands a freshly compiled schedule to the realtime thread
// (control-thread side of the SPSC handoff, spec §4.1).
func (r *Renderer) PushSchedule(s *schedule.Schedule) error {
	return r.schedules.Enqueue(unsafe.Pointer(s))
}

// Process runs one block (spec §4.7): swap in the latest schedule,
// zero outputs, render every root subsequence in order summing into
// its assigned output channel with its current fade gain, then promote
// the tap-outs of every active root.
func (r *Renderer) Process(outputs [][]float32, numSamples int) {
	if p, ok := r.schedules.DrainToLatest(); ok {
		r.current = (*schedule.Schedule)(p)
	}
	for _, ch := range outputs {
		zero(ch[:numSamples])
	}
	if r.current == nil || numSamples == 0 {
		return
	}

	for _, rs := range r.current.Roots {
		r.renderRoot(&rs, outputs, numSamples)
	}
	for _, rs := range r.current.Roots {
		for _, tap := range rs.TapOuts {
			if !rs.State.Active() {
				continue // a fading-out or stopped root does not promote
			}
			tap.Promote()
		}
	}
}

func (r *Renderer) renderRoot(rs *schedule.RootSubsequence, outputs [][]float32, numSamples int) {
	state := rs.State
	if !state.StillRunning() {
		return
	}
	channel := state.OutputChannel()
	if channel < 0 || channel >= len(outputs) {
		state.Advance(numSamples)
		return
	}

	for _, op := range rs.Ops {
		r.ctx = node.Context{
			Inputs:     op.Inputs,
			Outputs:    op.Outputs,
			NumSamples: numSamples,
			Active:     state.Active(),
			SampleRate: r.sampleRate,
		}
		op.Impl.Process(&r.ctx)
	}

	if len(rs.Ops) == 0 {
		state.Advance(numSamples)
		return
	}

	rootOut := rs.Ops[len(rs.Ops)-1].Outputs[0]
	dst := outputs[channel]
	gain := state.CurrentGain()
	target := state.TargetGain()
	step := state.FadeStep()
	for i := 0; i < numSamples; i++ {
		if gain < target {
			gain += step
			if gain > target {
				gain = target
			}
		} else if gain > target {
			gain -= step
			if gain < target {
				gain = target
			}
		}
		dst[i] += rootOut[i] * float32(gain)
	}
	state.Advance(numSamples)
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
