package worker

import (
	"context"
	"sync"
)

// Job is a unit of work run by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produces
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

// Pool runs jobs on a fixed number of workers. Wait returns results in
// submission order regardless of completion order.
type Pool struct {
	workers    int
	submitted  int
	jobQueue   chan indexedJob
	mu         sync.Mutex
	slots      map[int]Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewPool creates a pool bound to ctx. workers <= 0 means one worker.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan indexedJob, workers*2),
		slots:      make(map[int]Result),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Workers returns the configured worker count
func (p *Pool) Workers() int {
	return p.workers
}

// Start launches the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case item, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := item.job.Execute(p.ctx)
			p.mu.Lock()
			p.slots[item.index] = result
			p.mu.Unlock()
		}
	}
}

// Submit queues a job. It is a no-op once the pool context is done.
// Submit must not be called concurrently with itself or with Wait.
func (p *Pool) Submit(job Job) {
	item := indexedJob{index: p.submitted, job: job}
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- item:
		p.submitted++
	}
}

// Wait closes the queue, waits for the workers and returns one result per
// completed job, ordered by submission. Jobs dropped by cancellation leave
// no entry.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.cancelFunc()

	p.mu.Lock()
	defer p.mu.Unlock()

	results := make([]Result, 0, len(p.slots))
	for i := 0; i < p.submitted; i++ {
		if r, ok := p.slots[i]; ok && r != nil {
			results = append(results, r)
		}
	}
	return results
}
