package plugins

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/reqctx"
	"github.com/dmitrymomot/relay/pkg/async"
)

// RetryConfig configures the retry plugin.
type RetryConfig struct {
	// MaxRetries bounds retries per request (default: 3).
	MaxRetries int

	// RetryOn lists response statuses worth retrying
	// (default: 429, 502, 503, 504).
	RetryOn []int

	// RetryIf decides whether an error is worth retrying. By default errors
	// with a 5xx status are, fatal errors never are.
	RetryIf func(err error) bool

	// InitialInterval, MaxInterval and Multiplier shape the exponential backoff.
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64

	// MaxElapsed stops retrying once the request has been retried that long.
	// Zero disables the limit.
	MaxElapsed time.Duration

	// RetryNonIdempotent also retries requests flagged non-idempotent.
	RetryNonIdempotent bool
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryOn == nil {
		c.RetryOn = []int{
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		}
	}
	if c.RetryIf == nil {
		c.RetryIf = func(err error) bool {
			return message.StatusOf(err) >= http.StatusInternalServerError
		}
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	if c.Multiplier <= 1 {
		c.Multiplier = 2
	}
	return c
}

// Retry redoes requests that failed with a retryable status or error,
// waiting an exponentially growing interval between attempts. Waits honor
// context cancellation. Each dispatch works on its own copy, so attempt
// counts never leak between requests.
type Retry struct {
	cfg      RetryConfig
	attempts int
	backoff  backoff.BackOff
}

// NewRetry creates a retry plugin prototype.
func NewRetry(cfg RetryConfig) *Retry {
	return &Retry{cfg: cfg.withDefaults()}
}

// NewInstance implements plugin.Instancer.
func (r *Retry) NewInstance() any {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval
	b.Multiplier = r.cfg.Multiplier
	b.MaxElapsedTime = r.cfg.MaxElapsed
	b.Reset()
	return &Retry{cfg: r.cfg, backoff: b}
}

// Attempts reports how many retries this instance has scheduled.
func (r *Retry) Attempts() int { return r.attempts }

// next reports the wait before the next retry, or false when the request
// must not be retried again.
func (r *Retry) next(ctx context.Context) (time.Duration, bool) {
	if r.backoff == nil || r.attempts >= r.cfg.MaxRetries {
		return 0, false
	}
	if !r.cfg.RetryNonIdempotent && !reqctx.Idempotent.Value(reqctx.FromContext(ctx)) {
		return 0, false
	}
	wait := r.backoff.NextBackOff()
	if wait == backoff.Stop {
		return 0, false
	}
	r.attempts++
	return wait, true
}

func (r *Retry) retryResponse(ctx context.Context, resp *message.Response) (time.Duration, bool) {
	if resp.Request == nil || !slices.Contains(r.cfg.RetryOn, resp.Status) {
		return 0, false
	}
	return r.next(ctx)
}

func (r *Retry) retryError(ctx context.Context, e *message.Error) (time.Duration, bool) {
	if e.Request == nil || message.IsFatal(e) || !r.cfg.RetryIf(e.Err) {
		return 0, false
	}
	return r.next(ctx)
}

func (r *Retry) ProcessResponse(ctx context.Context, resp *message.Response) (plugin.Result, error) {
	wait, ok := r.retryResponse(ctx, resp)
	if !ok {
		return plugin.Unchanged(), nil
	}
	if err := sleep(ctx, wait); err != nil {
		return plugin.Result{}, err
	}
	return plugin.Redo(resp.Request), nil
}

func (r *Retry) HandleError(ctx context.Context, e *message.Error) (plugin.Result, error) {
	wait, ok := r.retryError(ctx, e)
	if !ok {
		return plugin.Unchanged(), nil
	}
	if err := sleep(ctx, wait); err != nil {
		return plugin.Result{}, err
	}
	return plugin.Redo(e.Request), nil
}

// ProcessResponseAsync suspends on the backoff wait instead of blocking.
func (r *Retry) ProcessResponseAsync(ctx context.Context, resp *message.Response) *async.Future[plugin.Result] {
	wait, ok := r.retryResponse(ctx, resp)
	if !ok {
		return async.Resolved(plugin.Unchanged(), nil)
	}
	return async.Go(ctx, func(ctx context.Context) (plugin.Result, error) {
		if err := sleep(ctx, wait); err != nil {
			return plugin.Result{}, err
		}
		return plugin.Redo(resp.Request), nil
	})
}

func (r *Retry) HandleErrorAsync(ctx context.Context, e *message.Error) *async.Future[plugin.Result] {
	wait, ok := r.retryError(ctx, e)
	if !ok {
		return async.Resolved(plugin.Unchanged(), nil)
	}
	return async.Go(ctx, func(ctx context.Context) (plugin.Result, error) {
		if err := sleep(ctx, wait); err != nil {
			return plugin.Result{}, err
		}
		return plugin.Redo(e.Request), nil
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
