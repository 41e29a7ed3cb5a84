// Package schedule implements the Scheduler and RenderSchedule (spec
// §4.5): compiling a NodeStore snapshot into a root-partitioned,
// post-order evaluation plan with pre-allocated scratch buffers.
package schedule

import (
	"github.com/elemaudio/audiograph/internal/alloc"
	"github.com/elemaudio/audiograph/internal/store"
	"github.com/elemaudio/audiograph/node"
)

// Op is one node's compiled render step: gather Inputs from already-
// rendered child buffers, invoke Impl.Process into Outputs.
type Op struct {
	NodeID  node.ID
	Impl    node.Node
	Inputs  [][]float32
	Outputs [][]float32
}

// RootSubsequence is one root's compiled evaluation plan (spec §3): a
// handle to the root's persistent state, the ops it owns (nodes first
// reached from this root, in the global partition order), and the
// tap-out nodes reachable from it, for post-block promotion.
type RootSubsequence struct {
	RootID  node.ID
	State   *store.RootState
	Ops     []Op
	TapOuts []node.Promoter
}

// Schedule is the immutable compiled output of one Scheduler pass,
// handed across the control→realtime boundary as a single pointer.
type Schedule struct {
	Roots []RootSubsequence
}

// Compile builds a Schedule from the current store snapshot and output
// buffer allocator (spec §4.5). alloc is Reset by the caller before
// every Compile call that needs a fresh buffer layout.
func Compile(s *store.Store, bufs *alloc.Allocator, blockSize int) *Schedule {
	roots := orderedRoots(s)

	visited := make(map[node.ID]bool)
	outputsOf := make(map[node.ID][][]float32)

	sched := &Schedule{Roots: make([]RootSubsequence, 0, len(roots))}

	for _, rootID := range roots {
		rs := RootSubsequence{RootID: rootID, State: s.Roots()[rootID]}

		var walk func(id node.ID)
		walk = func(id node.ID) {
			if visited[id] {
				return
			}
			visited[id] = true

			for _, e := range s.Children(id) {
				walk(e.Child)
			}

			impl, ok := s.Node(id)
			if !ok {
				return
			}
			channels := outputChannels(impl)
			outputs := bufs.NextN(channels)
			outputsOf[id] = outputs

			edges := s.Children(id)
			inputs := make([][]float32, len(edges))
			for i, e := range edges {
				childOut := outputsOf[e.Child]
				if e.OutputChannel >= 0 && e.OutputChannel < len(childOut) {
					inputs[i] = childOut[e.OutputChannel]
				} else {
					inputs[i] = make([]float32, blockSize)
				}
			}

			rs.Ops = append(rs.Ops, Op{NodeID: id, Impl: impl, Inputs: inputs, Outputs: outputs})
			if p, ok := impl.(node.Promoter); ok {
				rs.TapOuts = append(rs.TapOuts, p)
			}
		}
		walk(rootID)

		sched.Roots = append(sched.Roots, rs)
	}

	return sched
}

// orderedRoots partitions roots active-first, fading-second (spec
// §4.5 step 1), dropping any root that is neither active nor still
// running out its fade.
func orderedRoots(s *store.Store) []node.ID {
	var active, fading []node.ID
	for id, r := range s.Roots() {
		switch {
		case r.Active():
			active = append(active, id)
		case r.StillRunning():
			fading = append(fading, id)
		}
	}
	return append(active, fading...)
}

func outputChannels(n node.Node) int {
	if mo, ok := n.(node.MultiOutput); ok {
		return mo.OutputChannels()
	}
	return 1
}
