package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/octue/octue-sdk-go/pkg/errs"
	"github.com/octue/octue-sdk-go/retry"
)

func TestDoRetriesTransientErrors(t *testing.T) {
	c := qt.New(t)
	attempts := 0

	err := retry.Do(context.Background(), time.Second, func() error {
		attempts++
		if attempts < 3 {
			return errs.B().Code(errs.Unavailable).Msg("broker briefly unreachable").Err()
		}
		return nil
	})

	c.Assert(err, qt.IsNil)
	c.Assert(attempts, qt.Equals, 3)
}

func TestDoDoesNotRetryFatalErrors(t *testing.T) {
	c := qt.New(t)
	attempts := 0

	err := retry.Do(context.Background(), time.Second, func() error {
		attempts++
		return errs.B().Code(errs.InvalidArgument).Msg("malformed request").Err()
	})

	c.Assert(attempts, qt.Equals, 1)
	c.Assert(errs.CodeOf(err), qt.Equals, errs.InvalidArgument)
}

func TestDoGivesUpAfterDeadline(t *testing.T) {
	c := qt.New(t)
	attempts := 0

	err := retry.Do(context.Background(), 50*time.Millisecond, func() error {
		attempts++
		return errs.B().Code(errs.Unavailable).Msg("still down").Err()
	})

	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(attempts > 0, qt.IsTrue)
}

func TestDoPropagatesContextCancellation(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Do(ctx, time.Second, func() error {
		return errors.New("should not matter")
	})

	c.Assert(err, qt.Not(qt.IsNil))
}
