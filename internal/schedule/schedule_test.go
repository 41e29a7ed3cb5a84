package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elemaudio/audiograph/internal/alloc"
	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/internal/schedule"
	"github.com/elemaudio/audiograph/internal/store"
	"github.com/elemaudio/audiograph/node"
	"github.com/elemaudio/audiograph/value"
)

type constLike struct{ v float32 }

func (c *constLike) SetProperty(string, value.Value, *resource.Map) *node.Error { return nil }
func (c *constLike) Process(ctx *node.Context) {
	for i := range ctx.Outputs[0] {
		ctx.Outputs[0][i] = c.v
	}
}
func (c *constLike) ProcessEvents(node.EmitFunc) {}
func (c *constLike) Reset()                      {}

type passthrough struct{}

func (passthrough) SetProperty(string, value.Value, *resource.Map) *node.Error { return nil }
func (passthrough) Process(ctx *node.Context) {
	if len(ctx.Inputs) == 0 {
		return
	}
	copy(ctx.Outputs[0], ctx.Inputs[0])
}
func (passthrough) ProcessEvents(node.EmitFunc) {}
func (passthrough) Reset()                      {}

func testRegistry() *node.Registry {
	r := node.NewRegistry()
	r.Register("const2", func(id node.ID, _ float64, _ int) node.Node { return &constLike{v: 2} })
	r.Register("const3", func(id node.ID, _ float64, _ int) node.Node { return &constLike{v: 3} })
	r.Register("root", func(node.ID, float64, int) node.Node { return passthrough{} })
	return r
}

func TestCompileSharesNodeAcrossRoots(t *testing.T) {
	s := store.New(testRegistry(), 44100, 4)
	require.Nil(t, s.CreateNode(1, "const2"))
	require.Nil(t, s.CreateNode(2, "root"))
	require.Nil(t, s.CreateNode(3, "root"))
	require.Nil(t, s.AppendChild(2, 1, 0))
	require.Nil(t, s.AppendChild(3, 1, 0))
	require.Nil(t, s.ActivateRoots([]node.ID{2, 3}))

	bufs := alloc.New(4)
	sched := schedule.Compile(s, bufs, 4)

	total := 0
	for _, rs := range sched.Roots {
		total += len(rs.Ops)
	}
	// 2 roots + 1 shared const = 3 ops total, not 4, since the const
	// renders exactly once despite being reachable from both roots.
	require.Equal(t, 3, total)
}

func TestCompileSkipsInactiveNonRunningRoots(t *testing.T) {
	s := store.New(testRegistry(), 44100, 4)
	require.Nil(t, s.CreateNode(1, "root"))
	// never activated: neither active nor fading
	bufs := alloc.New(4)
	sched := schedule.Compile(s, bufs, 4)
	require.Empty(t, sched.Roots)
}
