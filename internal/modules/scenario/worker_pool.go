package scenario

import (
	"context"
	"fmt"
	"sync"
)

// WorkerPool fills a PathMatrix by spreading paths across goroutines.
// Each path draws from its own stream, so the result does not depend on
// the number of workers.
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Workers returns the configured worker count.
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// Simulate runs the request with path p drawing from streams.Stream(p).
// It stops early and returns the context error if ctx is cancelled.
func (wp *WorkerPool) Simulate(ctx context.Context, req SimulationRequest, streams StreamSource) (*PathMatrix, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if streams == nil {
		return nil, fmt.Errorf("%w: stream source is required", ErrInvalidRequest)
	}

	raw := make([]float64, req.HorizonDays*req.PathCount)
	errs := make([]error, req.PathCount)
	jobs := make(chan jobItem, req.PathCount)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if req.PathCount < numActualWorkers {
		numActualWorkers = req.PathCount
	}

	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobs, raw, errs, req, streams)
		}()
	}

	for p := 0; p < req.PathCount; p++ {
		jobs <- jobItem{path: p}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("simulation cancelled: %w", err)
	}
	// Lowest failing path wins so the error matches the sequential run.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return newPathMatrix(req.StartPrice, req.HorizonDays, req.PathCount, raw), nil
}

// jobItem is one path to simulate
type jobItem struct {
	path int
}

// worker writes each job's path straight into its own column of raw
// and its failure into errs[path]. Columns never overlap between jobs.
func worker(ctx context.Context, jobs <-chan jobItem, raw []float64, errs []error, req SimulationRequest, streams StreamSource) {
	for job := range jobs {
		if ctx.Err() != nil {
			continue
		}
		errs[job.path] = fillPath(raw, req, job.path, streams.Stream(job.path))
	}
}
