// Package queue provides bounded, lock-free FIFO queue implementations used
// everywhere the engine crosses a thread boundary without synchronization.
//
// The package offers multiple queue variants optimized for different
// producer/consumer patterns:
//
//   - SPSC: Single-Producer Single-Consumer — the control/realtime boundary
//   - MPSC: Multi-Producer Single-Consumer — resource-loader completions
//   - SPMC: Single-Producer Multi-Consumer — resource-loader job dispatch
//   - MPMC: Multi-Producer Multi-Consumer — the node-event subscriber bus
//
// # Quick Start
//
// Direct constructors (recommended for most cases):
//
//	q := queue.NewSPSC[Event](1024)
//	q := queue.NewMPMC[Event](4096)
//
// Builder API auto-selects algorithm based on constraints:
//
//	q := queue.Build[Event](queue.New(1024).SingleProducer().SingleConsumer())  // → SPSC
//	q := queue.Build[Event](queue.New(1024).SingleConsumer())                   // → MPSC
//	q := queue.Build[Event](queue.New(1024).SingleProducer())                   // → SPMC
//	q := queue.Build[Event](queue.New(1024))                                    // → MPMC
//
// # Basic Usage
//
// All queues share the same interface for enqueueing and dequeueing:
//
//	q := queue.NewMPMC[int](1024)
//
//	value := 42
//	if err := q.Enqueue(&value); err != nil {
//	    // queue full - handle backpressure
//	}
//
//	elem, err := q.Dequeue()
//	if err != nil {
//	    // queue empty
//	}
//
// # Engine usage
//
// Schedule handoff (SPSCPtr, drain-to-latest):
//
//	sched := queue.NewSPSCPtr(2)
//	sched.Enqueue(unsafe.Pointer(newSchedule))   // control thread
//	if p, ok := sched.DrainToLatest(); ok {        // realtime thread, every block
//	    current = (*schedule.Schedule)(p)
//	}
//
// Per-node control→realtime parameter handoff (SPSC, drain-each in
// node.Process, one queue per node):
//
//	paramQ := queue.NewSPSC[paramUpdate](8)
//	paramQ.Enqueue(&update)  // control thread, inside SetProperty
//	for {
//	    u, err := paramQ.Dequeue()  // realtime thread, top of Process
//	    if err != nil {
//	        break
//	    }
//	    apply(u)
//	}
//
// Resource loader dispatch/completion (SPMC job fan-out, MPSC completion
// fan-in — see internal/loader):
//
//	jobs := queue.NewSPMC[loadJob](64)
//	results := queue.NewMPSC[loadResult](64)
//
// Node event bus (MPMC fan-out to independent subscribers — see
// internal/events.Bus):
//
//	bus := queue.NewMPMC[nodeEvent](256)
//
// # Algorithm Selection
//
// SPSC uses a Lamport ring buffer (n slots, cached indices, already
// optimal for its access pattern). MPSC/SPMC/MPMC use FAA-based SCQ
// (Nikolaev, DISC 2019), requiring 2n physical slots for capacity n in
// exchange for better scalability under contention than CAS-based
// alternatives.
//
// # Error Handling
//
// Queues return [ErrWouldBlock] when operations cannot proceed. This error
// is sourced from [code.hybscloud.com/iox] for ecosystem consistency.
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.Enqueue(&item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !queue.IsWouldBlock(err) {
//	        return err // unexpected error
//	    }
//	    backoff.Wait()
//	}
//
// # Capacity and Length
//
// Capacity rounds up to the next power of 2. Minimum capacity is 2.
// Panics if capacity < 2.
//
// Length is intentionally not provided: accurate counts in lock-free
// algorithms require expensive cross-core synchronization. The schedule
// compiler and the resource loader track their own counts where needed.
//
// # Thread Safety
//
// All queue operations are thread-safe within their access pattern
// constraints. Violating them (e.g., two producers on an SPSC queue)
// causes undefined behavior including data corruption and races.
//
// # Graceful Shutdown
//
// The multi-consumer FAA-based queues (MPMC, SPMC) include a threshold
// mechanism to prevent livelock. This mechanism may cause Dequeue to
// return [ErrWouldBlock] even when items remain, waiting for producer
// activity to reset the threshold. MPMC implements the [Drainer]
// interface, whose Drain lifts the threshold check so a fully-drained
// consumer sees every item a finished producer enqueued. MPSC also
// implements [Drainer]; SPMC does not.
//
// SPSC queues do not implement [Drainer] as they have no threshold
// mechanism; the type assertion naturally handles this case.
//
// # Race Detection
//
// Go's race detector tracks explicit synchronization primitives (mutex,
// channels, WaitGroup) but cannot observe happens-before relationships
// established purely through atomic acquire-release orderings. These
// algorithms are correct, but concurrent stress tests that rely on
// sequence numbers with acquire-release semantics may report false
// positives under -race. The concurrent tests in this package order
// producers before consumers with sync.WaitGroup and carry no race build
// tag.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause instructions.
package queue
