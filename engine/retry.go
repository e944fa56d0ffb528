package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// permanent marks err as not worth retrying.
func permanent(err error) error {
	return backoff.Permanent(err)
}

// withRetry runs op with exponential backoff, at most maxRetries times after
// the first attempt. Errors wrapped by permanent stop the loop immediately.
func withRetry(ctx context.Context, maxRetries int, initial time.Duration, target string, op func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	b := backoff.NewExponentialBackOff()
	if initial > 0 {
		b.InitialInterval = initial
	}
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return op()
	}, policy, func(err error, wait time.Duration) {
		slog.Debug("http_engine: retrying",
			"url", target,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	})
}
