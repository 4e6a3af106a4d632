package async

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Future represents the result of an asynchronous computation.
type Future[T any] struct {
	value T
	err   error
	once  sync.Once
	done  chan struct{}
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Go runs fn on its own goroutine and returns a future for its result.
// A panic inside fn resolves the future with an error instead of crashing the process.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()

	go func() {
		var zero T

		defer func() {
			if rec := recover(); rec != nil {
				f.resolve(zero, fmt.Errorf("async: panic: %v", rec))
			}
		}()

		// Early exit prevents goroutine work when context is pre-canceled
		select {
		case <-ctx.Done():
			f.resolve(zero, ctx.Err())
			return
		default:
		}

		f.resolve(fn(ctx))
	}()

	return f
}

// Async executes fn asynchronously with the given parameter.
func Async[T, P any](ctx context.Context, param P, fn func(context.Context, P) (T, error)) *Future[T] {
	return Go(ctx, func(ctx context.Context) (T, error) {
		return fn(ctx, param)
	})
}

// Resolved returns a future that is already complete.
func Resolved[T any](value T, err error) *Future[T] {
	f := newFuture[T]()
	f.resolve(value, err)
	return f
}

// Await waits for the computation to complete and returns its result.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.value, f.err
}

// AwaitContext waits for the computation or for ctx to be done, whichever comes first.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitWithTimeout waits for the computation with a timeout.
// If the timeout occurs before completion, ErrTimeout is returned.
func (f *Future[T]) AwaitWithTimeout(timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}

// IsComplete checks if the computation is complete without blocking.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Then returns a future resolved with fn applied to f's result.
// fn runs on the goroutine that resolves f's waiter, never concurrently with f.
func Then[T, U any](ctx context.Context, f *Future[T], fn func(T, error) (U, error)) *Future[U] {
	return Go(ctx, func(ctx context.Context) (U, error) {
		return fn(f.AwaitContext(ctx))
	})
}

// WaitAll waits for all futures and returns their results in order.
// The first error encountered is returned.
func WaitAll[T any](futures ...*Future[T]) ([]T, error) {
	results := make([]T, len(futures))
	for i, future := range futures {
		v, err := future.Await()
		if err != nil {
			return nil, err
		}
		results[i] = v
	}
	return results, nil
}

// WaitAny returns as soon as any future completes.
// Note: This function spawns one goroutine per future. All goroutines will complete naturally
// when their respective futures finish.
func WaitAny[T any](futures ...*Future[T]) (int, T, error) {
	if len(futures) == 0 {
		var zero T
		return -1, zero, ErrNoFutures
	}

	type result struct {
		index int
		value T
		err   error
	}
	done := make(chan result, len(futures))

	for i, future := range futures {
		go func(index int, f *Future[T]) {
			v, err := f.Await()
			done <- result{index, v, err}
		}(i, future)
	}

	res := <-done
	return res.index, res.value, res.err
}
