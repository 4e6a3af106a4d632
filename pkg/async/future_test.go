package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/pkg/async"
)

func TestGo(t *testing.T) {
	t.Parallel()

	t.Run("returns value", func(t *testing.T) {
		t.Parallel()

		f := async.Go(context.Background(), func(ctx context.Context) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return 42, nil
		})

		v, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.True(t, f.IsComplete())
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		f := async.Go(context.Background(), func(ctx context.Context) (string, error) {
			return "", boom
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("pre-canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := make(chan struct{}, 1)
		f := async.Go(ctx, func(ctx context.Context) (int, error) {
			called <- struct{}{}
			return 1, nil
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, called)
	})

	t.Run("recovers panic", func(t *testing.T) {
		t.Parallel()

		f := async.Go(context.Background(), func(ctx context.Context) (int, error) {
			panic("kaboom")
		})

		_, err := f.Await()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kaboom")
	})
}

func TestAsync(t *testing.T) {
	t.Parallel()

	f := async.Async(context.Background(), 21, func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})

	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFuture_AwaitContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	f := async.Go(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.AwaitContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.IsComplete())
}

func TestFuture_AwaitWithTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	slow := async.Go(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	_, err := slow.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)

	fast := async.Resolved(7, nil)
	v, err := fast.AwaitWithTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestThen(t *testing.T) {
	t.Parallel()

	f := async.Then(context.Background(), async.Resolved(2, nil), func(v int, err error) (string, error) {
		if err != nil {
			return "", err
		}
		return "value", nil
	})

	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	futures := []*async.Future[int]{
		async.Async(ctx, 1, square),
		async.Async(ctx, 2, square),
		async.Async(ctx, 3, square),
	}

	results, err := async.WaitAll(futures...)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9}, results)

	boom := errors.New("boom")
	_, err = async.WaitAll(async.Resolved(1, nil), async.Resolved(0, boom))
	assert.ErrorIs(t, err, boom)
}

func TestWaitAny(t *testing.T) {
	t.Parallel()

	_, _, err := async.WaitAny[int]()
	assert.ErrorIs(t, err, async.ErrNoFutures)

	release := make(chan struct{})
	defer close(release)

	slow := async.Go(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	idx, v, err := async.WaitAny(slow, async.Resolved(5, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 5, v)
}

func square(_ context.Context, n int) (int, error) {
	return n * n, nil
}
