// Package loader implements an asynchronous resource loader pool
// (SPEC_FULL.md §10 supplement): decode work that the client wants
// published into the ResourceMap is dispatched to a small worker pool
// via SPMC, and completions are collected back onto the control thread
// via MPSC, so a slow decode never blocks instruction application.
package loader

import (
	"code.hybscloud.com/iox"

	"github.com/elemaudio/audiograph/internal/queue"
)

// jobQueueCapacity and resultQueueCapacity bound in-flight work; a
// full job queue means Dispatch reports backpressure rather than
// blocking the control thread.
const (
	jobQueueCapacity    = 64
	resultQueueCapacity = 64
)

// Job is one decode request: Decode is the blocking, allocating work
// (e.g. audio file decoding) that must never run on the control or
// realtime thread.
type Job struct {
	Name   string
	Decode func() ([][]float32, error)
}

// Result is a completed decode, collected back onto the control thread.
type Result struct {
	Name     string
	Channels [][]float32
	Err      error
}

// Pool runs numWorkers goroutines pulling Jobs from a shared SPMC queue
// and pushing Results onto a shared MPSC queue.
type Pool struct {
	jobs    *queue.SPMC[Job]
	results *queue.MPSC[Result]
	done    chan struct{}
}

// Start launches numWorkers decode goroutines and returns the running
// Pool. Call Stop to shut them down.
func Start(numWorkers int) *Pool {
	p := &Pool{
		jobs:    queue.NewSPMC[Job](jobQueueCapacity),
		results: queue.NewMPSC[Result](resultQueueCapacity),
		done:    make(chan struct{}),
	}
	for i := 0; i < numWorkers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	backoff := iox.Backoff{}
	for {
		select {
		case <-p.done:
			return
		default:
		}
		job, err := p.jobs.Dequeue()
		if err != nil {
			backoff.Wait()
			continue
		}
		backoff.Reset()

		channels, decodeErr := job.Decode()
		result := Result{Name: job.Name, Channels: channels, Err: decodeErr}
		for p.results.Enqueue(&result) != nil {
			backoff.Wait()
		}
	}
}

// Dispatch enqueues job for a worker to pick up. Returns false if the
// job queue is currently full (control thread should retry later
// rather than block).
func (p *Pool) Dispatch(job Job) bool {
	return p.jobs.Enqueue(&job) == nil
}

// Drain invokes cb for every completed decode currently queued, merging
// results into the ResourceMap on the control thread — the only thread
// that ever touches it (spec §5).
func (p *Pool) Drain(cb func(Result)) {
	for {
		r, err := p.results.Dequeue()
		if err != nil {
			return
		}
		cb(r)
	}
}

// Stop signals every worker goroutine to exit after its current job.
func (p *Pool) Stop() { close(p.done) }
