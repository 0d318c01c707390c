// Package workers provides a small bounded worker pool used by transport
// bindings that deliver messages from an internal queue rather than a
// cloud SDK's own streaming pull (currently just the in-memory binding
// used in tests).
package workers

import (
	"context"
	"sync"
	"sync/atomic"
)

// Fetcher pulls up to maxToFetch items, blocking until at least one is
// available or ctx is done.
type Fetcher[T any] func(ctx context.Context, maxToFetch int) ([]T, error)

// Processor handles a single item.
type Processor[T any] func(ctx context.Context, item T) error

// Run drives fetch/process with at most concurrency items in flight at
// once. It blocks until ctx is canceled or fetch returns an error; items
// already handed to a processor are allowed to finish even after that.
//
// concurrency <= 0 means unbounded: every fetched item gets its own
// goroutine immediately.
func Run[T any](ctx context.Context, concurrency int, fetch Fetcher[T], process Processor[T]) error {
	if concurrency <= 0 {
		return runUnbounded(ctx, fetch, process)
	}
	return runBounded(ctx, concurrency, fetch, process)
}

func runUnbounded[T any](ctx context.Context, fetch Fetcher[T], process Processor[T]) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for ctx.Err() == nil {
		items, err := fetch(ctx, 64)
		if err != nil {
			return err
		}
		for _, item := range items {
			item := item
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = process(ctx, item)
			}()
		}
	}
	return nil
}

func runBounded[T any](ctx context.Context, concurrency int, fetch Fetcher[T], process Processor[T]) error {
	items := make(chan T)
	var inFlight atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range items {
				inFlight.Add(1)
				_ = process(ctx, item)
				inFlight.Add(-1)
			}
		}()
	}
	defer func() {
		close(items)
		wg.Wait()
	}()

	for ctx.Err() == nil {
		need := int(int64(concurrency) - inFlight.Load())
		if need <= 0 {
			need = 1
		}
		fetched, err := fetch(ctx, need)
		if err != nil {
			return err
		}
		for _, item := range fetched {
			select {
			case items <- item:
			case <-ctx.Done():
				return nil
			}
		}
	}
	return nil
}
