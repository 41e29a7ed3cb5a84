package node_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elemaudio/audiograph/node"
	"github.com/elemaudio/audiograph/value"
)

func newBuiltinRegistry() *node.Registry {
	r := node.NewRegistry()
	node.RegisterBuiltins(r)
	return r
}

func process(n node.Node, inputs [][]float32, numOutputs, numSamples int) [][]float32 {
	outputs := make([][]float32, numOutputs)
	for i := range outputs {
		outputs[i] = make([]float32, numSamples)
	}
	n.Process(&node.Context{Inputs: inputs, Outputs: outputs, NumSamples: numSamples, SampleRate: 44100})
	return outputs
}

func constOf(t *testing.T, v float64) node.Node {
	t.Helper()
	n, ok := newBuiltinRegistry().Create("const", 1, 44100, 8)
	require.True(t, ok)
	require.Nil(t, n.SetProperty("value", value.Number(v), nil))
	return n
}

func TestBinaryMathOps(t *testing.T) {
	r := newBuiltinRegistry()

	cases := []struct {
		kind     string
		a, b     float32
		expected float32
	}{
		{"sub", 5, 3, 2},
		{"div", 6, 3, 2},
		{"pow", 2, 3, 8},
		{"gt", 5, 3, 1},
		{"gt", 3, 5, 0},
		{"le", 3, 3, 1},
		{"and", 1, 1, 1},
		{"and", 1, 0, 0},
		{"or", 0, 1, 1},
	}

	for _, c := range cases {
		impl, ok := r.Create(c.kind, 1, 44100, 4)
		require.True(t, ok, c.kind)
		out := process(impl, [][]float32{{c.a, c.a}, {c.b, c.b}}, 1, 2)
		require.Equal(t, c.expected, out[0][0], c.kind)
	}
}

func TestNaryMathOpsReduceAcrossAllInputs(t *testing.T) {
	r := newBuiltinRegistry()

	add, ok := r.Create("add", 1, 44100, 4)
	require.True(t, ok)
	out := process(add, [][]float32{{1, 1}, {2, 2}, {3, 3}}, 1, 2)
	require.Equal(t, float32(6), out[0][0])

	max, ok := r.Create("max", 2, 44100, 4)
	require.True(t, ok)
	out = process(max, [][]float32{{1, 9}, {5, 2}}, 1, 2)
	require.Equal(t, float32(5), out[0][0])
	require.Equal(t, float32(9), out[0][1])
}

func TestUnaryMathOps(t *testing.T) {
	r := newBuiltinRegistry()

	abs, ok := r.Create("abs", 1, 44100, 4)
	require.True(t, ok)
	out := process(abs, [][]float32{{-4, 4}}, 1, 2)
	require.Equal(t, float32(4), out[0][0])
	require.Equal(t, float32(4), out[0][1])

	not, ok := r.Create("not", 2, 44100, 4)
	require.True(t, ok)
	out = process(not, [][]float32{{0, 1}}, 1, 2)
	require.Equal(t, float32(1), out[0][0])
	require.Equal(t, float32(0), out[0][1])
}

func TestMathNodesZeroOutputWhenInputMissing(t *testing.T) {
	r := newBuiltinRegistry()

	add, ok := r.Create("add", 1, 44100, 4)
	require.True(t, ok)
	out := process(add, nil, 1, 4)
	for _, s := range out[0] {
		require.Equal(t, float32(0), s)
	}

	div, ok := r.Create("div", 2, 44100, 4)
	require.True(t, ok)
	out = process(div, [][]float32{{1, 1}}, 1, 2)
	for _, s := range out[0] {
		require.Equal(t, float32(0), s)
	}
}

func TestConstNodeEmitsFixedValue(t *testing.T) {
	c := constOf(t, 7)
	out := process(c, nil, 1, 4)
	for _, s := range out[0] {
		require.Equal(t, float32(7), s)
	}
}
