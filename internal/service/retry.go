package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shampooches/payments/internal/square"
)

// retryPolicy resends a gateway call after transport errors. Callers build
// the request, and so its idempotency key, once before the first try.
type retryPolicy struct {
	logger  *slog.Logger
	retries int
	backoff time.Duration
}

func (p retryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.backoff
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(0, p.retries))), ctx)
}

func callGateway[T any](ctx context.Context, p retryPolicy, op string, call func(context.Context) (T, error)) (T, error) {
	var (
		attempt int
		lastErr error
	)

	out, err := backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		out, err := call(ctx)
		if err != nil && !square.IsRetryable(err) {
			return out, backoff.Permanent(err)
		}
		lastErr = err
		return out, err
	}, p.newBackOff(ctx), func(err error, wait time.Duration) {
		p.logger.WarnContext(ctx, "retrying gateway call", "op", op, "attempt", attempt, "wait", wait, "error", err)
	})

	// A cancelled wait reports the last gateway failure, not the context error.
	if err != nil && lastErr != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return out, lastErr
	}
	return out, err
}
