// Package retry implements the runtime's retry policy: exponential
// backoff bounded by a deadline, applied only to the transport error codes
// the transport abstraction's contract names as transient.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/octue/octue-sdk-go/pkg/errs"
)

// Do runs op repeatedly until it succeeds, returns a non-transient error,
// or the cumulative elapsed time reaches deadline. The per-attempt maximum
// backoff is deadline/4, per the runtime's contract.
//
// op's returned error is inspected with errs.CodeOf; only a Transient()
// code is retried. A non-*errs.Error is treated as Unknown, which is
// itself transient, matching the source's "unknown errors are retried"
// behaviour - callers that want a non-retryable failure must wrap it in
// an *errs.Error with a non-transient code.
func Do(ctx context.Context, deadline time.Duration, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = deadline / 4
	b.MaxElapsedTime = deadline
	if b.MaxInterval <= 0 {
		b.MaxInterval = b.InitialInterval
	}
	if b.InitialInterval > b.MaxInterval {
		b.InitialInterval = b.MaxInterval
	}

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !errs.CodeOf(err).Transient() {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(b, ctx))
}
