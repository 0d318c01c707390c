package errs_test

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/octue/octue-sdk-go/pkg/errs"
)

func TestBuilderDefaults(t *testing.T) {
	c := qt.New(t)
	err := errs.B().Err()
	c.Assert(err, qt.ErrorMatches, "unknown: unknown error")
	c.Assert(errs.CodeOf(err), qt.Equals, errs.Unknown)
}

func TestBuilderInheritsCodeFromCause(t *testing.T) {
	c := qt.New(t)
	cause := errs.B().Code(errs.NotFound).Msg("missing").Err()
	wrapped := errs.B().Cause(cause).Msg("could not continue").Err()
	c.Assert(errs.CodeOf(wrapped), qt.Equals, errs.NotFound)
}

func TestBuilderExplicitCodeOverridesCause(t *testing.T) {
	c := qt.New(t)
	cause := errs.B().Code(errs.NotFound).Err()
	wrapped := errs.B().Code(errs.Internal).Cause(cause).Err()
	c.Assert(errs.CodeOf(wrapped), qt.Equals, errs.Internal)
}

func TestCodeOfUnwrapsThroughStandardWrapping(t *testing.T) {
	c := qt.New(t)
	cause := errs.B().Code(errs.Aborted).Err()
	wrapped := fmt.Errorf("context: %w", cause)
	c.Assert(errs.CodeOf(wrapped), qt.Equals, errs.Aborted)
	c.Assert(errs.CodeOf(cause), qt.Equals, errs.Aborted)
}

func TestTransientSet(t *testing.T) {
	c := qt.New(t)
	transient := []errs.Code{
		errs.NotFound, errs.Aborted, errs.DeadlineExceeded, errs.Internal,
		errs.ResourceExhausted, errs.Unavailable, errs.Unknown, errs.Canceled,
	}
	for _, code := range transient {
		c.Assert(code.Transient(), qt.IsTrue, qt.Commentf("code %s should be transient", code))
	}

	fatal := []errs.Code{
		errs.InvalidArgument, errs.AlreadyExists, errs.FailedPrecondition,
		errs.PermissionDenied, errs.Unauthenticated,
	}
	for _, code := range fatal {
		c.Assert(code.Transient(), qt.IsFalse, qt.Commentf("code %s should not be transient", code))
	}
}
