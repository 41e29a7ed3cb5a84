// Package audiograph is the Runtime facade (spec §4.11): the single
// entry point a host binds its audio callback and instruction stream
// to. It owns every component — NodeStore, ResourceMap, BufferAllocator,
// Scheduler, Renderer, EventPump — and is the only place that crosses
// the control/realtime thread boundary.
package audiograph

import (
	"log/slog"

	"github.com/elemaudio/audiograph/internal/alloc"
	"github.com/elemaudio/audiograph/internal/apply"
	"github.com/elemaudio/audiograph/internal/events"
	"github.com/elemaudio/audiograph/internal/loader"
	"github.com/elemaudio/audiograph/internal/queue"
	"github.com/elemaudio/audiograph/internal/render"
	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/internal/schedule"
	"github.com/elemaudio/audiograph/internal/store"
	"github.com/elemaudio/audiograph/node"
	"github.com/elemaudio/audiograph/value"
)

// loaderWorkers is the number of goroutines backing every Runtime's
// asynchronous resource-decode pool (spec §10).
const loaderWorkers = 2

// Config carries the construction-time settings recognized by the
// Runtime (spec §6).
type Config struct {
	SampleRate float64 // Hz
	BlockSize  int     // samples
}

// Runtime owns the whole engine (spec §4.11).
type Runtime struct {
	cfg Config
	log *slog.Logger

	registry  *node.Registry
	resources *resource.Map
	store     *store.Store
	bufs      *alloc.Allocator
	applier   *apply.Applier
	renderer  *render.Renderer
	pump      *events.Pump
	bus       *events.Bus
	loader    *loader.Pool

	current *schedule.Schedule
}

// New constructs a Runtime with the built-in node kind set registered.
func New(cfg Config) *Runtime {
	if cfg.BlockSize <= 0 {
		panic("audiograph: BlockSize must be > 0")
	}
	if cfg.SampleRate <= 0 {
		panic("audiograph: SampleRate must be > 0")
	}

	registry := node.NewRegistry()
	node.RegisterBuiltins(registry)

	resources := resource.New()
	st := store.New(registry, cfg.SampleRate, cfg.BlockSize)

	return &Runtime{
		cfg:       cfg,
		log:       slog.Default().With("component", "audiograph"),
		registry:  registry,
		resources: resources,
		store:     st,
		bufs:      alloc.New(cfg.BlockSize),
		applier:   apply.New(st, resources),
		renderer:  render.New(1, cfg.BlockSize, cfg.SampleRate),
		pump:      events.NewPump(),
		bus:       events.NewBus(),
		loader:    loader.Start(loaderWorkers),
	}
}

// Close shuts down background work owned by the Runtime — currently
// just the loader pool's worker goroutines. Safe to call once, after
// the last Process/ApplyInstructions call.
func (r *Runtime) Close() {
	r.loader.Stop()
}

// RegisterNodeKind adds a custom node kind factory (spec §4.11).
// Returns false if the kind name is already registered.
func (r *Runtime) RegisterNodeKind(name string, factory node.Factory) bool {
	return r.registry.Register(name, factory)
}

// ApplyInstructions applies an instruction batch (spec §4.9, §6),
// rebuilding and pushing a new schedule if the batch committed a root
// activation.
func (r *Runtime) ApplyInstructions(batch []apply.Instruction) *node.Error {
	rebuild, err := r.applier.Apply(batch)
	if err != nil {
		r.log.Warn("instruction batch failed", "code", err.Code, "msg", err.Msg)
		return err
	}
	if rebuild {
		r.bufs.Reset()
		sched := schedule.Compile(r.store, r.bufs, r.cfg.BlockSize)
		if pushErr := r.renderer.PushSchedule(sched); pushErr != nil {
			r.log.Error("schedule handoff queue full, dropping rebuild", "error", pushErr)
			return node.NewError(node.InvariantViolation, "schedule handoff queue full")
		}
		r.current = sched
	}
	return nil
}

// Process renders exactly numSamples samples into outputs, one slice
// per host output channel, fully overwriting them (spec §6). Realtime,
// non-allocating.
func (r *Runtime) Process(outputs [][]float32, numSamples int) {
	r.renderer.Process(outputs, numSamples)
}

// ProcessQueuedEvents drains every live node's ProcessEvents, relaying
// emitted (name, payload) pairs to cb and fanning them out to every Bus
// subscriber (spec §4.10, §10). Control thread only.
func (r *Runtime) ProcessQueuedEvents(cb func(name string, payload value.Value)) {
	if r.current == nil {
		return
	}
	r.pump.Drain(r.current, func(name string, payload value.Value) {
		cb(name, payload)
		r.bus.Publish(events.Event{Name: name, Payload: payload})
	})
}

// Subscribe registers a new independent listener on the Runtime's event
// Bus and returns its receive queue (spec §10). One slow subscriber
// cannot starve another.
func (r *Runtime) Subscribe() *queue.MPMC[events.Event] {
	return r.bus.Subscribe()
}

// Reset clears internal state on every node in the current schedule
// (spec §4.11).
func (r *Runtime) Reset() {
	if r.current == nil {
		return
	}
	seen := make(map[node.ID]bool)
	for _, rs := range r.current.Roots {
		for _, op := range rs.Ops {
			if seen[op.NodeID] {
				continue
			}
			seen[op.NodeID] = true
			op.Impl.Reset()
		}
	}
}

// GC removes nodes no longer referenced by any live (active or
// fading) root, returning the removed set (spec §4.11). The trigger
// policy is left to the caller (spec §9's open question): call this
// explicitly whenever garbage collection is desired.
func (r *Runtime) GC() []node.ID {
	var live []node.ID
	for id, rootState := range r.store.Roots() {
		if rootState.Active() || rootState.StillRunning() {
			live = append(live, id)
		}
	}
	return r.store.GC(live)
}

// AddSharedResource publishes an immutable buffer under name (spec
// §4.11, §4.8). Add-only: returns false if name is already published.
func (r *Runtime) AddSharedResource(name string, channels [][]float32) bool {
	return r.resources.Add(name, channels)
}

// AddSharedResourceAsync dispatches decode to the loader pool so a slow
// decode (e.g. reading and resampling an audio file) never blocks the
// control thread (spec §10). Returns false if the pool's job queue is
// currently full; the caller should retry. The decoded buffer is
// published under name the next time DrainLoader runs.
func (r *Runtime) AddSharedResourceAsync(name string, decode func() ([][]float32, error)) bool {
	return r.loader.Dispatch(loader.Job{Name: name, Decode: decode})
}

// DrainLoader merges every decode the loader pool has completed since
// the last call into the ResourceMap, publishing each under its job's
// name (spec §10). Call once per control-thread tick, alongside
// ProcessQueuedEvents.
func (r *Runtime) DrainLoader() {
	r.loader.Drain(func(res loader.Result) {
		if res.Err != nil {
			r.log.Warn("async resource decode failed", "name", res.Name, "error", res.Err)
			return
		}
		if !r.resources.Add(res.Name, res.Channels) {
			r.log.Warn("async resource decode finished after name was already published", "name", res.Name)
		}
	})
}

// PruneSharedResources removes immutable resources with no outstanding
// borrower (spec §4.11, §4.8).
func (r *Runtime) PruneSharedResources() {
	r.resources.Prune()
}

// ListSharedResources lists published immutable resource names, never
// their contents (spec §4.11, §4.8).
func (r *Runtime) ListSharedResources() []string {
	return r.resources.Keys()
}

// Snapshot returns each live node's current property mirror, keyed by
// NodeId (spec §4.11).
func (r *Runtime) Snapshot() map[node.ID]map[string]value.Value {
	return r.store.Snapshot()
}
