// Package queue provides the bounded lock-free FIFOs that cross the
// control/realtime thread boundary: never a lock, never an allocation,
// never a block.
package queue

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// SPSC is a single-producer single-consumer bounded queue.
//
// Based on Lamport's ring buffer with cached index optimization.
// The producer caches the consumer's dequeue index, and vice versa,
// reducing cross-core cache line traffic.
//
// The engine uses SPSC[T] for per-node control-to-realtime parameter and
// sample-buffer handoffs (one queue per node, control thread is the sole
// producer, the node's own process call is the sole consumer) and for
// realtime-to-control event reporting (process is the sole producer, the
// EventPump's drain is the sole consumer).
type SPSC[T any] struct {
	_          pad
	head       atomix.Uint64 // Consumer reads from here
	_          pad
	cachedTail uint64 // Consumer's cached view of tail
	_          pad
	tail       atomix.Uint64 // Producer writes here
	_          pad
	cachedHead uint64 // Producer's cached view of head
	_          pad
	buffer     []T
	mask       uint64
}

// NewSPSC creates a new SPSC queue.
// Capacity rounds up to the next power of 2.
func NewSPSC[T any](capacity int) *SPSC[T] {
	if capacity < 2 {
		panic("queue: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	return &SPSC[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}
}

// Enqueue adds an element to the queue (producer only).
// Returns ErrWouldBlock if the queue is full.
func (q *SPSC[T]) Enqueue(elem *T) error {
	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return ErrWouldBlock
		}
	}

	q.buffer[tail&q.mask] = *elem
	q.tail.StoreRelease(tail + 1)
	return nil
}

// Dequeue removes and returns an element (consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *SPSC[T]) Dequeue() (T, error) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, ErrWouldBlock
		}
	}

	elem := q.buffer[head&q.mask]
	var zero T
	q.buffer[head&q.mask] = zero
	q.head.StoreRelease(head + 1)
	return elem, nil
}

// DrainToLatest pops every queued element and returns only the last one.
// Used for the schedule handoff, where an intermediate schedule sitting in
// the queue is of no interest once a newer one has been pushed behind it.
func (q *SPSC[T]) DrainToLatest() (T, bool) {
	var latest T
	var ok bool
	for {
		v, err := q.Dequeue()
		if err != nil {
			return latest, ok
		}
		latest, ok = v, true
	}
}

// Cap returns the queue capacity.
func (q *SPSC[T]) Cap() int {
	return int(q.mask + 1)
}

// SPSCPtr is a SPSC queue for unsafe.Pointer values.
// Useful for zero-copy pointer passing between goroutines — the engine
// uses it to hand a freshly compiled *schedule.Schedule from the control
// thread to the realtime thread without the realtime thread ever
// dereferencing a typed slice on the hot path.
type SPSCPtr struct {
	_          pad
	head       atomix.Uint64
	_          pad
	cachedTail uint64
	_          pad
	tail       atomix.Uint64
	_          pad
	cachedHead uint64
	_          pad
	buffer     []unsafe.Pointer
	mask       uint64
}

// NewSPSCPtr creates a new SPSC queue for unsafe.Pointer values.
// Capacity rounds up to the next power of 2.
func NewSPSCPtr(capacity int) *SPSCPtr {
	if capacity < 2 {
		panic("queue: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	return &SPSCPtr{
		buffer: make([]unsafe.Pointer, n),
		mask:   n - 1,
	}
}

// Enqueue adds an element (producer only).
func (q *SPSCPtr) Enqueue(elem unsafe.Pointer) error {
	tail := q.tail.LoadRelaxed()

	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return ErrWouldBlock
		}
	}
	// Pointer arithmetic avoids slice bounds checking in hot path.
	// Equivalent to q.buffer[tail&q.mask] = elem
	*(*unsafe.Pointer)(unsafe.Add(unsafe.Pointer(unsafe.SliceData(q.buffer)), int(tail&q.mask)*ptrSize)) = elem
	q.tail.StoreRelease(tail + 1)
	return nil
}

// Dequeue removes and returns an element (consumer only).
func (q *SPSCPtr) Dequeue() (unsafe.Pointer, error) {
	head := q.head.LoadRelaxed()

	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			return nil, ErrWouldBlock
		}
	}
	// Pointer arithmetic avoids slice bounds checking in hot path.
	// Equivalent to elem := q.buffer[head&q.mask]
	elem := *(*unsafe.Pointer)(unsafe.Add(unsafe.Pointer(unsafe.SliceData(q.buffer)), int(head&q.mask)*ptrSize))
	q.head.StoreRelease(head + 1)
	return elem, nil
}

// DrainToLatest pops every queued pointer and returns only the last one.
func (q *SPSCPtr) DrainToLatest() (unsafe.Pointer, bool) {
	var latest unsafe.Pointer
	var ok bool
	for {
		v, err := q.Dequeue()
		if err != nil {
			return latest, ok
		}
		latest, ok = v, true
	}
}

// Cap returns the queue capacity.
func (q *SPSCPtr) Cap() int {
	return int(q.mask + 1)
}
