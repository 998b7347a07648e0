package compose

import (
	"context"
	"sync"
)

// Reporter receives notifications as requests move through a batch.
type Reporter interface {
	Start(index int, req Request)
	Complete(index int, outcome Outcome)
}

// BatchOptions controls Batch execution.
type BatchOptions struct {
	Concurrency int
	Reporter    Reporter
}

// BatchResult pairs an outcome with the unexpected error, if any, that ended
// it.
type BatchResult struct {
	Outcome Outcome
	Err     error
}

// Batch composes every request, running up to Concurrency at once. A failed
// composition never stops the others. Results keep the order of requests.
func (e *Engine) Batch(ctx context.Context, requests []Request, opts BatchOptions) []BatchResult {
	results := make([]BatchResult, len(requests))

	if ctx == nil {
		ctx = context.Background()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, concurrency)
	)

	for i, req := range requests {
		sem <- struct{}{}
		if opts.Reporter != nil {
			opts.Reporter.Start(i, req)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			outcome, err := e.Compose(ctx, req)
			results[i] = BatchResult{Outcome: outcome, Err: err}
			if opts.Reporter != nil {
				opts.Reporter.Complete(i, outcome)
			}
		}()
	}

	wg.Wait()
	return results
}

// Summary counts batch results by state.
type Summary struct {
	Done   int
	Failed int
	Errors int
}

// Summarize tallies results.
func Summarize(results []BatchResult) Summary {
	var s Summary
	for _, res := range results {
		switch {
		case res.Err != nil:
			s.Errors++
		case res.Outcome.OK():
			s.Done++
		default:
			s.Failed++
		}
	}
	return s
}
