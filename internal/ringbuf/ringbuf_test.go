package ringbuf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elemaudio/audiograph/internal/ringbuf"
)

func TestWriteReadRoundTrip(t *testing.T) {
	r := ringbuf.New(2, 8)

	in := [][]float32{{1, 2, 3}, {10, 20, 30}}
	require.True(t, r.Write(in))
	require.Equal(t, 3, r.Available())

	out := [][]float32{make([]float32, 3), make([]float32, 3)}
	require.True(t, r.Read(out, 3))
	require.Equal(t, []float32{1, 2, 3}, out[0])
	require.Equal(t, []float32{10, 20, 30}, out[1])
	require.Equal(t, 0, r.Available())
}

func TestReadInsufficientFramesFails(t *testing.T) {
	r := ringbuf.New(1, 8)
	require.True(t, r.Write([][]float32{{1, 2}}))

	out := [][]float32{make([]float32, 4)}
	require.False(t, r.Read(out, 4))
}

func TestWriteOverflowDropsBlock(t *testing.T) {
	r := ringbuf.New(1, 4)
	require.True(t, r.Write([][]float32{{1, 2, 3}}))
	// only 1 frame of room remains; a 2-frame write must be rejected whole
	require.False(t, r.Write([][]float32{{4, 5}}))
	require.Equal(t, 3, r.Available())
}

func TestCapRoundsUpToPowerOfTwo(t *testing.T) {
	r := ringbuf.New(1, 5)
	require.Equal(t, 8, r.Cap())
}
