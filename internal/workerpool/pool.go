// Package workerpool runs a fixed amount of long-lived workers consuming jobs from a bounded
// queue. Submitting into a full queue blocks the caller.
package workerpool

import (
	"errors"
	"sync"
	"sync/atomic"
)

var ErrStopped = errors.New("worker pool is stopped")

// State of a single worker.
type State uint32

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Handler processes a single job. The worker index is stable for the whole lifetime of the
// worker, so it may be used to address per-worker resources.
type Handler[J any] func(worker int, job J)

type Pool[J any] struct {
	jobs    chan J
	handler Handler[J]
	states  []atomic.Uint32
	busy    *atomic.Int64
	wg      *sync.WaitGroup
	// mu guards the jobs channel from being closed while someone sends into it.
	mu      *sync.RWMutex
	stopped bool
}

// New starts the workers. Both workers and queueSize are clamped to at least 1.
func New[J any](workers, queueSize int, handler Handler[J]) *Pool[J] {
	workers, queueSize = max(workers, 1), max(queueSize, 1)

	p := &Pool[J]{
		jobs:    make(chan J, queueSize),
		handler: handler,
		states:  make([]atomic.Uint32, workers),
		busy:    new(atomic.Int64),
		wg:      new(sync.WaitGroup),
		mu:      new(sync.RWMutex),
	}

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

func (p *Pool[J]) worker(id int) {
	defer p.wg.Done()
	defer p.states[id].Store(uint32(Stopped))

	for job := range p.jobs {
		p.states[id].Store(uint32(Running))
		p.busy.Add(1)
		p.handler(id, job)
		p.busy.Add(-1)
		p.states[id].Store(uint32(Idle))
	}
}

// Submit enqueues the job, blocking while the queue is full.
func (p *Pool[J]) Submit(job J) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}

	p.jobs <- job
	return nil
}

// Workers returns the number of workers.
func (p *Pool[J]) Workers() int {
	return len(p.states)
}

// Queued returns the number of jobs waiting in the queue.
func (p *Pool[J]) Queued() int {
	return len(p.jobs)
}

// Busy returns the number of workers currently processing a job.
func (p *Pool[J]) Busy() int {
	return int(p.busy.Load())
}

// State returns the state of the worker with the given index.
func (p *Pool[J]) State(worker int) State {
	return State(p.states[worker].Load())
}

// Stopped reports whether all the workers are terminated.
func (p *Pool[J]) Stopped() bool {
	for i := range p.states {
		if State(p.states[i].Load()) != Stopped {
			return false
		}
	}

	return true
}

// Stop rejects all the further submissions, lets the workers drain the queue and waits
// until they exit. It's safe to call Stop multiple times.
func (p *Pool[J]) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
	}
	p.mu.Unlock()

	p.wg.Wait()
}
