package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// invoke runs fn under policy: each attempt gets its own timeout, failed
// attempts back off exponentially, and rejected or malformed results stop
// retrying immediately. Exhausted retries are reported as ErrCapabilityUnavailable.
func invoke[T any](
	ctx context.Context,
	policy RetryPolicy,
	logger *slog.Logger,
	op string,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = policy.InitialInterval
	eb.MaxInterval = policy.MaxInterval

	attempt := 0
	result, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		actx, cancel := context.WithTimeout(ctx, policy.Timeout)
		defer cancel()

		v, err := fn(actx)
		if err == nil {
			return v, nil
		}
		if !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(policy.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.WarnContext(ctx, "capability call failed, retrying",
				"op", op,
				"attempt", attempt,
				"next", next,
				"error", err,
			)
		}),
	)

	if err != nil {
		var zero T
		if !retryable(err) {
			return zero, err
		}
		return zero, fmt.Errorf("%w: %s after %d attempts: %w", ErrCapabilityUnavailable, op, attempt, err)
	}

	return result, nil
}

func retryable(err error) bool {
	return !errors.Is(err, ErrCapabilityRejected) && !errors.Is(err, ErrMalformedOutput)
}
