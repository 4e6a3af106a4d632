// Package async provides a generic Future used by the cooperative execution model.
//
// A Future[T] is the result of an asynchronous computation. Await blocks until it
// completes, AwaitContext additionally returns early when the context is done, and
// AwaitWithTimeout bounds the wait by a duration.
//
//	future := async.Go(ctx, func(ctx context.Context) (User, error) {
//		return repo.Get(ctx, id)
//	})
//
//	user, err := future.AwaitContext(ctx)
//
// Resolved wraps an already known value, which lets synchronous code satisfy APIs
// that expect a future:
//
//	return async.Resolved[any](result, nil)
//
// WaitAll and WaitAny coordinate multiple futures. ErrTimeout is returned by
// AwaitWithTimeout and ErrNoFutures by WaitAny with an empty argument list.
//
// All operations are safe for concurrent use. Completion is guarded by sync.Once.
package async
