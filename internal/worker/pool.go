// Package worker runs bulk collection jobs over a bounded goroutine pool.
package worker

import (
	"context"
	"sync"
)

// Job is one phrase to collect during a bulk import.
type Job struct {
	Line int
	Text string
}

// Result is the outcome of one collect job.
type Result struct {
	Line    int
	Text    string
	WordID  string
	Skipped bool
	Err     error
}

// Runner executes one job. Implementations must be safe for concurrent use.
type Runner func(ctx context.Context, job Job) Result

// Pool fans jobs out to a fixed number of workers and collects results.
type Pool struct {
	workers int
	run     Runner

	jobs    chan Job
	results chan Result
	wg      sync.WaitGroup
}

// NewPool creates a pool with the given worker count.
func NewPool(workers int, run Runner) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		run:     run,
		jobs:    make(chan Job, workers*2),
		results: make(chan Result, workers*2),
	}
}

// Run processes all jobs and returns their results. Order is not preserved;
// callers sort by Line when it matters. Cancellation stops job intake but
// lets in-flight jobs finish.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	go func() {
		defer close(p.jobs)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case p.jobs <- job:
			}
		}
	}()

	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	results := make([]Result, 0, len(jobs))
	for result := range p.results {
		results = append(results, result)
	}
	return results
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for job := range p.jobs {
		select {
		case <-ctx.Done():
			return
		case p.results <- p.run(ctx, job):
		}
	}
}
