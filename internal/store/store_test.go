package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/internal/store"
	"github.com/elemaudio/audiograph/node"
	"github.com/elemaudio/audiograph/value"
)

type stubNode struct{}

func (stubNode) SetProperty(string, value.Value, *resource.Map) *node.Error { return nil }
func (stubNode) Process(*node.Context)                                     {}
func (stubNode) ProcessEvents(node.EmitFunc)                                {}
func (stubNode) Reset()                                                    {}

func testRegistry() *node.Registry {
	r := node.NewRegistry()
	r.Register("const", func(id node.ID, sampleRate float64, blockSize int) node.Node { return stubNode{} })
	r.Register("root", func(id node.ID, sampleRate float64, blockSize int) node.Node { return stubNode{} })
	return r
}

func TestCreateNodeRejectsDuplicateAndUnknownKind(t *testing.T) {
	s := store.New(testRegistry(), 44100, 512)
	require.Nil(t, s.CreateNode(1, "const"))

	err := s.CreateNode(1, "const")
	require.NotNil(t, err)
	require.Equal(t, node.NodeAlreadyExists, err.Code)

	err = s.CreateNode(2, "nope")
	require.NotNil(t, err)
	require.Equal(t, node.UnknownNodeType, err.Code)
}

func TestAppendChildValidatesEndpoints(t *testing.T) {
	s := store.New(testRegistry(), 44100, 512)
	require.Nil(t, s.CreateNode(1, "const"))
	require.Nil(t, s.CreateNode(2, "const"))

	require.Nil(t, s.AppendChild(1, 2, 0))
	require.Equal(t, []store.Edge{{Child: 2, OutputChannel: 0}}, s.Children(1))

	err := s.AppendChild(1, 99, 0)
	require.NotNil(t, err)
	require.Equal(t, node.NodeNotFound, err.Code)
}

func TestActivateRootsTracksFadeTarget(t *testing.T) {
	s := store.New(testRegistry(), 44100, 512)
	require.Nil(t, s.CreateNode(1, "root"))
	require.Nil(t, s.CreateNode(2, "root"))

	require.Nil(t, s.ActivateRoots([]node.ID{1}))
	s.Roots()[1].Advance(512) // one rendered block lifts root 1's gain off zero
	require.True(t, s.Roots()[1].Active())
	require.False(t, s.Roots()[2].Active())

	require.Nil(t, s.ActivateRoots([]node.ID{2}))
	require.False(t, s.Roots()[1].Active())
	require.True(t, s.Roots()[2].Active())
	// root 1 is deactivated but its gain hasn't settled yet, so it still runs
	require.True(t, s.Roots()[1].StillRunning())
}

func TestGCRemovesUnreachableNodes(t *testing.T) {
	s := store.New(testRegistry(), 44100, 512)
	require.Nil(t, s.CreateNode(1, "root"))
	require.Nil(t, s.CreateNode(2, "const"))
	require.Nil(t, s.CreateNode(3, "const"))
	require.Nil(t, s.AppendChild(1, 2, 0))
	// node 3 is never wired in

	removed := s.GC([]node.ID{1})
	require.ElementsMatch(t, []node.ID{3}, removed)

	_, ok := s.Node(3)
	require.False(t, ok)
	_, ok = s.Node(2)
	require.True(t, ok)
}

func TestGCIsIdempotentWithoutMutation(t *testing.T) {
	s := store.New(testRegistry(), 44100, 512)
	require.Nil(t, s.CreateNode(1, "root"))
	require.Nil(t, s.CreateNode(2, "const"))

	require.Empty(t, s.GC([]node.ID{1, 2}))
	require.Empty(t, s.GC([]node.ID{1, 2}))
}
