package waxis

import (
	"context"
	"sync"
)

// fanOutResult pairs a worker's output with its original index so results
// rejoin in input order regardless of completion order.
type fanOutResult[T any] struct {
	index int
	value T
	ok    bool
}

// FanOut runs fn over n items through a bounded worker pool. Items are
// dispatched FIFO; results are reassembled by original index. The
// returned ok slice holds each item's ok result from fn; items that were
// never dispatched stay false.
//
// Cancellation semantics: once ctx is cancelled no new items are
// dispatched, in-flight calls see the cancelled context, and FanOut
// returns after the in-flight workers finish. The caller decides what to
// do with the partial result set (majority rule lives in the Engine).
func FanOut[T any](ctx context.Context, n, workers int, fn func(ctx context.Context, index int) (T, bool)) ([]T, []bool) {
	values := make([]T, n)
	oks := make([]bool, n)
	if n == 0 {
		return values, oks
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	results := make(chan fanOutResult[T], n)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				v, ok := fn(ctx, idx)
				results <- fanOutResult[T]{index: idx, value: v, ok: ok}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			// select picks at random among ready cases, so check first.
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		values[r.index] = r.value
		oks[r.index] = r.ok
	}
	return values, oks
}
