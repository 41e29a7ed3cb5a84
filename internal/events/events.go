// Package events implements the EventPump (spec §4.10) and an MPMC
// event Bus (SPEC_FULL.md §10 supplement) for fanning node-reported
// events out to more than one control-thread subscriber.
package events

import (
	"github.com/elemaudio/audiograph/internal/queue"
	"github.com/elemaudio/audiograph/internal/schedule"
	"github.com/elemaudio/audiograph/node"
	"github.com/elemaudio/audiograph/value"
)

// Event is a (name, payload) pair relayed from a node's ProcessEvents.
type Event struct {
	Name    string
	Payload value.Value
}

// Pump drains every node in the current schedule's ProcessEvents,
// relaying emitted events to cb. Control thread only (spec §4.10).
type Pump struct{}

// NewPump returns an EventPump.
func NewPump() *Pump { return &Pump{} }

// Drain walks sched's root subsequences and invokes each distinct
// node's ProcessEvents, relaying every emitted pair to cb. A node
// shared across roots is drained once.
func (p *Pump) Drain(sched *schedule.Schedule, cb func(name string, payload value.Value)) {
	seen := make(map[node.ID]bool)
	for _, rs := range sched.Roots {
		for _, op := range rs.Ops {
			if seen[op.NodeID] {
				continue
			}
			seen[op.NodeID] = true
			op.Impl.ProcessEvents(func(name string, payload value.Value) {
				cb(name, payload)
			})
		}
	}
}

// busCapacity bounds the MPMC fan-out ring. A slow subscriber falling
// behind by more than this misses the newest events (Publish drops them
// for that subscriber) rather than stalling the publisher (spec §4.1's "never block" discipline extended
// to the event-bus supplement).
const busCapacity = 256

// Bus fans events out to an arbitrary number of independent
// subscribers using the MPMC queue family: every subscriber gets its
// own consumer-side MPMC so one slow reader cannot starve another.
type Bus struct {
	subscribers []*queue.MPMC[Event]
}

// NewBus returns an empty event Bus.
func NewBus() *Bus { return &Bus{} }

// Subscribe registers a new listener and returns its receive queue.
func (b *Bus) Subscribe() *queue.MPMC[Event] {
	q := queue.NewMPMC[Event](busCapacity)
	b.subscribers = append(b.subscribers, q)
	return q
}

// Publish fans ev out to every subscriber, dropping it for any
// subscriber whose queue is currently full.
func (b *Bus) Publish(ev Event) {
	for _, q := range b.subscribers {
		_ = q.Enqueue(&ev)
	}
}
