// Package retry runs idempotent remote writes with exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
)

type Policy struct {
	// MaxAttempts counts the first try. Values below 1 mean a single attempt.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     4,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// NoRetry performs exactly one attempt.
func NoRetry() Policy {
	return Policy{MaxAttempts: 1}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.MaxElapsedTime = 0
	exp.Reset()

	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// Do calls op until it succeeds, the attempts are exhausted, ctx is done or op
// returns an error that retrying cannot fix. onRetry, if set, is called before
// each new attempt. The last error of op is returned.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, onRetry func(err error, wait time.Duration)) error {
	attempt := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if domain.IsPermanent(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}

	var notify backoff.Notify
	if onRetry != nil {
		notify = func(err error, wait time.Duration) { onRetry(err, wait) }
	}
	return backoff.RetryNotify(attempt, p.backOff(ctx), notify)
}
