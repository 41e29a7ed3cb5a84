package loader_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elemaudio/audiograph/internal/loader"
)

func TestPoolDispatchAndDrainRoundTrip(t *testing.T) {
	p := loader.Start(2)
	defer p.Stop()

	require.True(t, p.Dispatch(loader.Job{
		Name: "kick.wav",
		Decode: func() ([][]float32, error) {
			return [][]float32{{1, 2, 3}}, nil
		},
	}))

	deadline := time.Now().Add(time.Second)
	var got *loader.Result
	for time.Now().Before(deadline) && got == nil {
		p.Drain(func(r loader.Result) {
			if r.Name == "kick.wav" {
				cp := r
				got = &cp
			}
		})
		if got == nil {
			time.Sleep(time.Millisecond)
		}
	}
	require.NotNil(t, got)
	require.NoError(t, got.Err)
	require.Equal(t, [][]float32{{1, 2, 3}}, got.Channels)
}
