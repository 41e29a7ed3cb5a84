package node_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elemaudio/audiograph/node"
	"github.com/elemaudio/audiograph/value"
)

func TestSparseSeqLooksUpMostRecentBreakpoint(t *testing.T) {
	r := newBuiltinRegistry()
	n, ok := r.Create("sparseq", 1, 44100, 8)
	require.True(t, ok)

	points := value.Array([]value.Value{
		value.Array([]value.Value{value.Number(0), value.Number(10)}),
		value.Array([]value.Value{value.Number(2), value.Number(20)}),
		value.Array([]value.Value{value.Number(5), value.Number(30)}),
	})
	require.Nil(t, n.SetProperty("points", points, nil))

	// the tick counter is advanced (not read) on every clock rising edge,
	// so the value visible right after the Nth edge is valueAt(N), not
	// valueAt(N-1).
	clock := []float32{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	out := process(n, [][]float32{clock}, 1, len(clock))
	require.Equal(t, float32(10), out[0][0]) // tick 1: still before the tick-2 breakpoint
	require.Equal(t, float32(10), out[0][1])
	require.Equal(t, float32(20), out[0][2]) // tick 2
	require.Equal(t, float32(20), out[0][3])
	require.Equal(t, float32(30), out[0][8]) // tick 5
	require.Equal(t, float32(30), out[0][9])
}

func TestSparseSeqResetSnapsToTickZero(t *testing.T) {
	r := newBuiltinRegistry()
	n, ok := r.Create("sparseq", 1, 44100, 8)
	require.True(t, ok)
	points := value.Array([]value.Value{
		value.Array([]value.Value{value.Number(0), value.Number(1)}),
		value.Array([]value.Value{value.Number(1), value.Number(2)}),
	})
	require.Nil(t, n.SetProperty("points", points, nil))

	clock := []float32{1, 0, 1, 0}
	reset := []float32{0, 0, 0, 1}
	out := process(n, [][]float32{clock, reset}, 1, len(clock))
	require.Equal(t, float32(2), out[0][2]) // tick advanced past 1 before reset
	require.Equal(t, float32(1), out[0][3]) // reset snaps back to tick 0's value
}

func TestDenseSeqWrapsAndResets(t *testing.T) {
	r := newBuiltinRegistry()
	n, ok := r.Create("seq", 1, 44100, 8)
	require.True(t, ok)
	require.Nil(t, n.SetProperty("steps", value.Float32Array([]float32{1, 2, 3}), nil))

	clock := []float32{0, 1, 0, 1, 0, 1, 0, 1}
	out := process(n, [][]float32{clock}, 1, len(clock))
	require.Equal(t, float32(1), out[0][0]) // before any rising edge
	require.Equal(t, float32(2), out[0][1])
	require.Equal(t, float32(3), out[0][3])
	require.Equal(t, float32(1), out[0][5]) // wraps back to step 0
}

func TestOnePoleSmoothsTowardInput(t *testing.T) {
	r := newBuiltinRegistry()
	n, ok := r.Create("pole", 1, 44100, 8)
	require.True(t, ok)
	require.Nil(t, n.SetProperty("pole", value.Number(0.5), nil))

	in := make([]float32, 4)
	for i := range in {
		in[i] = 1
	}
	out := process(n, [][]float32{in}, 1, len(in))
	require.InDelta(t, 0.5, out[0][0], 1e-6)
	require.InDelta(t, 0.75, out[0][1], 1e-6)
	require.InDelta(t, 0.9375, out[0][3], 1e-6)
}

func TestZNodeDelaysBySingleSample(t *testing.T) {
	r := newBuiltinRegistry()
	n, ok := r.Create("z", 1, 44100, 8)
	require.True(t, ok)
	out := process(n, [][]float32{{1, 2, 3}}, 1, 3)
	require.Equal(t, float32(0), out[0][0])
	require.Equal(t, float32(1), out[0][1])
	require.Equal(t, float32(2), out[0][2])
}

func TestSampleDelayHoldsExactOffset(t *testing.T) {
	r := newBuiltinRegistry()
	n, ok := r.Create("sdelay", 1, 44100, 8)
	require.True(t, ok)
	require.Nil(t, n.SetProperty("delaySamples", value.Number(2), nil))
	out := process(n, [][]float32{{1, 2, 3, 4}}, 1, 4)
	require.Equal(t, float32(0), out[0][0])
	require.Equal(t, float32(0), out[0][1])
	require.Equal(t, float32(1), out[0][2])
	require.Equal(t, float32(2), out[0][3])
}

func TestBiquadPassthroughWithIdentityCoeffs(t *testing.T) {
	r := newBuiltinRegistry()
	n, ok := r.Create("biquad", 1, 44100, 8)
	require.True(t, ok)
	require.Nil(t, n.SetProperty("coeffs", value.Float32Array([]float32{1, 0, 0, 0, 0}), nil))
	out := process(n, [][]float32{{1, 2, 3}}, 1, 3)
	require.Equal(t, float32(1), out[0][0])
	require.Equal(t, float32(2), out[0][1])
	require.Equal(t, float32(3), out[0][2])
}

func TestSVFSettlesToDCInputOnLowpass(t *testing.T) {
	r := newBuiltinRegistry()
	n, ok := r.Create("svf", 1, 44100, 8)
	require.True(t, ok)
	require.Nil(t, n.SetProperty("cutoff", value.Number(500), nil))
	require.Nil(t, n.SetProperty("q", value.Number(0.707), nil))

	in := make([]float32, 2000)
	for i := range in {
		in[i] = 1
	}
	out := process(n, [][]float32{in}, 1, len(in))
	require.InDelta(t, 1.0, out[0][len(out[0])-1], 0.05)
}

func TestTableNodeWrapsAndInterpolates(t *testing.T) {
	r := newBuiltinRegistry()
	n, ok := r.Create("table", 1, 44100, 8)
	require.True(t, ok)
	require.Nil(t, n.SetProperty("table", value.Float32Array([]float32{0, 10, 20, 30}), nil))

	out := process(n, [][]float32{{0, 0.5, 0.999}}, 1, 3)
	require.Equal(t, float32(0), out[0][0])
	require.InDelta(t, 20.0, out[0][1], 1e-4)
	require.InDelta(t, 0.0, out[0][2], 0.31) // wraps near the end back toward index 0
}

func TestADSRRampsThroughStagesOnGate(t *testing.T) {
	r := newBuiltinRegistry()
	n, ok := r.Create("adsr", 1, 100, 8) // low sample rate keeps the test small
	require.True(t, ok)
	require.Nil(t, n.SetProperty("attack", value.Number(0.05), nil))  // 5 samples
	require.Nil(t, n.SetProperty("decay", value.Number(0.05), nil))   // 5 samples
	require.Nil(t, n.SetProperty("sustain", value.Number(0.5), nil))
	require.Nil(t, n.SetProperty("release", value.Number(0.05), nil))

	gate := make([]float32, 20)
	for i := 0; i < 12; i++ {
		gate[i] = 1
	}
	out := process(n, [][]float32{gate}, 1, len(gate))
	require.InDelta(t, 1.0, out[0][4], 0.25)   // attack nearly peaked
	require.InDelta(t, 0.5, out[0][11], 0.1)   // settled into sustain before gate drops
	require.Less(t, out[0][19], out[0][12])    // releasing after the gate drops
}
