package glyphforge

import (
	"context"
	"sync"
)

// ProcessJobs executes a batch across the engine's worker pool.
//
// Envelope errors ([ErrUnsupportedVersion], [ErrEmptyBatch]) fail the
// call before any job executes: no results, no cache side effects.
// Otherwise the returned channel yields exactly one [JobResult] per
// job in completion order (not submission order; correlate by ID) and
// closes when the batch is done. The sequence is single-pass and not
// restartable.
//
// All workers share the engine's font and glyph caches, so repeated
// fonts across jobs pay their load cost once. Canceling ctx stops
// scheduling further jobs; jobs already started finish and their
// results are still delivered before the channel closes.
func (e *Engine) ProcessJobs(ctx context.Context, batch *BatchSpec) (<-chan JobResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	workers := e.workers
	if workers > len(batch.Jobs) {
		workers = len(batch.Jobs)
	}

	jobs := make(chan JobSpec)
	// Buffered to the batch size so workers never block on a slow or
	// departed consumer.
	results := make(chan JobResult, len(batch.Jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- e.Render(ctx, job)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, job := range batch.Jobs {
			select {
			case jobs <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	Logger().Debug("batch started", "jobs", len(batch.Jobs), "workers", workers)
	return results, nil
}
