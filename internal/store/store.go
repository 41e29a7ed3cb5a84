// Package store implements the NodeStore (spec §2.5, §3): the
// authoritative node/edge registry, mutated only on the control thread.
// It also tracks root activation state, since a root's active/fading
// gain must survive across schedule rebuilds (spec §4.7) yet be
// readable by the Scheduler (control thread) while the Renderer advances
// it (realtime thread) — the two fields that cross that boundary,
// OutputChannel and the gain pair, are atomics.
package store

import (
	"math"

	"code.hybscloud.com/atomix"

	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/node"
	"github.com/elemaudio/audiograph/value"
)

// fadeStepFor returns the per-sample gain step that settles a full
// 0↔1 transition in sampleRate/20 samples (spec §4.7: "roughly 20 dB
// per sample worth of gain change... within milliseconds").
func fadeStepFor(sampleRate float64) float64 {
	return 20.0 / sampleRate
}

// Edge is an ordered (child, output channel) pair in a parent's child
// list (spec §3).
type Edge struct {
	Child         node.ID
	OutputChannel int
}

// entry is one NodeStore record: identity, kind, live Node instance,
// property mirror (for Snapshot and idempotent re-application), and
// child edges.
type entry struct {
	id         node.ID
	kind       string
	impl       node.Node
	children   []Edge
	properties map[string]value.Value
}

// RootState is the persistent activation/gain record for a root node,
// read by the Scheduler and advanced by the Renderer every block.
type RootState struct {
	ID node.ID

	fadeStep float64 // set once at creation, read-only thereafter

	outputChannel atomix.Int32
	active        atomix.Bool
	targetGain    atomix.Uint64 // float64 bits
	currentGain   atomix.Uint64 // float64 bits
}

// FadeStep is the per-sample gain step this root ramps at.
func (r *RootState) FadeStep() float64 { return r.fadeStep }

// OutputChannel returns the root's destination host channel, or -1 if
// never assigned.
func (r *RootState) OutputChannel() int { return int(r.outputChannel.LoadAcquire()) }

// SetOutputChannel assigns the destination host channel (control thread,
// via SetProperty on the root node).
func (r *RootState) SetOutputChannel(ch int) { r.outputChannel.StoreRelease(int32(ch)) }

// Active reports the target activation (control thread's intent).
func (r *RootState) Active() bool { return r.active.LoadAcquire() }

// CurrentGain is the realtime-advanced fade gain, readable from the
// control thread to decide whether a fading root can be dropped.
func (r *RootState) CurrentGain() float64 {
	return math.Float64frombits(r.currentGain.LoadAcquire())
}

func (r *RootState) targetGainValue() float64 {
	return math.Float64frombits(r.targetGain.LoadAcquire())
}

// TargetGain is the fade gain the Renderer ramps CurrentGain toward:
// 1 while active, 0 once deactivated (spec §4.7).
func (r *RootState) TargetGain() float64 { return r.targetGainValue() }

// StillRunning reports whether the root needs further rendering: either
// its activation target or its settled gain is non-zero (spec §4.7).
func (r *RootState) StillRunning() bool {
	return r.active.LoadAcquire() || r.CurrentGain() != 0 || r.targetGainValue() != 0
}

// Advance steps the current gain toward the target by up to
// FadeStep()*numSamples, called once per block by the Renderer.
func (r *RootState) Advance(numSamples int) {
	target := r.targetGainValue()
	cur := r.CurrentGain()
	if cur == target {
		return
	}
	step := r.fadeStep * float64(numSamples)
	if cur < target {
		cur += step
		if cur > target {
			cur = target
		}
	} else {
		cur -= step
		if cur < target {
			cur = target
		}
	}
	r.currentGain.StoreRelease(math.Float64bits(cur))
}

func (r *RootState) setActive(active bool) {
	r.active.StoreRelease(active)
	target := 0.0
	if active {
		target = 1.0
	}
	r.targetGain.StoreRelease(math.Float64bits(target))
}

// Store is the NodeStore: node/edge registry plus root activation
// state. All methods other than the RootState accessors above are
// control-thread only.
type Store struct {
	registry *node.Registry

	sampleRate float64
	blockSize  int

	nodes map[node.ID]*entry
	roots map[node.ID]*RootState
}

// New returns an empty Store bound to the given registry and engine
// configuration.
func New(registry *node.Registry, sampleRate float64, blockSize int) *Store {
	return &Store{
		registry:   registry,
		sampleRate: sampleRate,
		blockSize:  blockSize,
		nodes:      make(map[node.ID]*entry),
		roots:      make(map[node.ID]*RootState),
	}
}

// CreateNode instantiates a node of kind under id (spec §4.9).
func (s *Store) CreateNode(id node.ID, kind string) *node.Error {
	if _, exists := s.nodes[id]; exists {
		return node.NewError(node.NodeAlreadyExists, "node already exists")
	}
	factory, ok := s.registry.Lookup(kind)
	if !ok {
		return node.NewError(node.UnknownNodeType, kind)
	}
	impl := factory(id, s.sampleRate, s.blockSize)
	s.nodes[id] = &entry{id: id, kind: kind, impl: impl, properties: make(map[string]value.Value)}
	if kind == "root" {
		rs := &RootState{ID: id, fadeStep: fadeStepFor(s.sampleRate)}
		rs.outputChannel.StoreRelease(-1)
		s.roots[id] = rs
	}
	return nil
}

// SetProperty delegates to the node's SetProperty and mirrors the value
// for Snapshot (spec §4.9). The "outputChannel" property on a root kind
// also updates the root's atomically-readable output channel.
func (s *Store) SetProperty(id node.ID, key string, v value.Value, resources *resource.Map) *node.Error {
	e, ok := s.nodes[id]
	if !ok {
		return node.NewError(node.NodeNotFound, "")
	}
	if err := e.impl.SetProperty(key, v, resources); err != nil {
		return err
	}
	e.properties[key] = v
	if root, ok := s.roots[id]; ok && key == "outputChannel" {
		if n, ok := v.AsNumber(); ok {
			root.SetOutputChannel(int(n))
		}
	}
	return nil
}

// AppendChild validates parent and child exist and appends an edge
// (spec §4.9).
func (s *Store) AppendChild(parent, child node.ID, outputChannel int) *node.Error {
	p, ok := s.nodes[parent]
	if !ok {
		return node.NewError(node.NodeNotFound, "parent")
	}
	if _, ok := s.nodes[child]; !ok {
		return node.NewError(node.NodeNotFound, "child")
	}
	p.children = append(p.children, Edge{Child: child, OutputChannel: outputChannel})
	return nil
}

// ActivateRoots sets the target activation set (spec §4.9): every id in
// ids becomes active (target gain 1); every previously-known root not in
// ids becomes fading (target gain 0) but stays tracked until it stops
// running.
func (s *Store) ActivateRoots(ids []node.ID) *node.Error {
	target := make(map[node.ID]bool, len(ids))
	for _, id := range ids {
		target[id] = true
		r, ok := s.roots[id]
		if !ok {
			return node.NewError(node.NodeNotFound, "root")
		}
		r.setActive(true)
	}
	for id, r := range s.roots {
		if !target[id] {
			r.setActive(false)
		}
	}
	return nil
}

// Node returns the live node.Node implementation for id.
func (s *Store) Node(id node.ID) (node.Node, bool) {
	e, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	return e.impl, true
}

// Children returns the ordered edge list for id.
func (s *Store) Children(id node.ID) []Edge {
	e, ok := s.nodes[id]
	if !ok {
		return nil
	}
	return e.children
}

// Kind returns the registered kind name for id.
func (s *Store) Kind(id node.ID) (string, bool) {
	e, ok := s.nodes[id]
	if !ok {
		return "", false
	}
	return e.kind, true
}

// Roots returns every root ever activated, including ones currently
// fading out.
func (s *Store) Roots() map[node.ID]*RootState { return s.roots }

// Snapshot returns a copy of every node's current property mirror (spec
// §4.11).
func (s *Store) Snapshot() map[node.ID]map[string]value.Value {
	out := make(map[node.ID]map[string]value.Value, len(s.nodes))
	for id, e := range s.nodes {
		props := make(map[string]value.Value, len(e.properties))
		for k, v := range e.properties {
			props[k] = v
		}
		out[id] = props
	}
	return out
}

// GC removes every node not reachable from liveRoots (the union of
// active and still-fading roots), returning the set of removed ids
// (spec §4.11). A root itself is only removed once it is no longer
// live.
func (s *Store) GC(liveRoots []node.ID) []node.ID {
	reachable := make(map[node.ID]bool, len(s.nodes))
	var walk func(id node.ID)
	walk = func(id node.ID) {
		if reachable[id] {
			return
		}
		reachable[id] = true
		for _, e := range s.Children(id) {
			walk(e.Child)
		}
	}
	for _, id := range liveRoots {
		walk(id)
	}

	var removed []node.ID
	for id := range s.nodes {
		if reachable[id] {
			continue
		}
		removed = append(removed, id)
	}
	for _, id := range removed {
		delete(s.nodes, id)
		delete(s.roots, id)
	}
	return removed
}
