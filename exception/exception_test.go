package exception_test

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
	pkgerrors "github.com/pkg/errors"

	"github.com/octue/octue-sdk-go/envelope"
	"github.com/octue/octue-sdk-go/exception"
)

func TestReconstructFallsBackToGeneric(t *testing.T) {
	c := qt.New(t)
	r := exception.NewRegistry(nil)

	err := r.Reconstruct("SomeUnknownError", "went wrong", []envelope.Frame{{File: "a.py", Line: 1, Function: "f", Text: "x"}})

	var generic *exception.Generic
	c.Assert(pkgerrors.As(err, &generic), qt.IsTrue)
	c.Assert(generic.TypeName, qt.Equals, "SomeUnknownError")
	c.Assert(generic.Error(), qt.Equals, "SomeUnknownError: went wrong")
}

func TestReconstructUsesRegisteredConstructor(t *testing.T) {
	c := qt.New(t)
	r := exception.NewRegistry(map[string]exception.Constructor{
		"ValueError": func(message string) error { return fmt.Errorf("value error: %s", message) },
	})

	err := r.Reconstruct("ValueError", "bad input", nil)

	var remote *exception.Remote
	c.Assert(pkgerrors.As(err, &remote), qt.IsTrue)
	c.Assert(remote.Error(), qt.Equals, "value error: bad input")
}

func TestCaptureExtractsStackTraceFromPkgErrors(t *testing.T) {
	c := qt.New(t)
	err := pkgerrors.New("boom")

	typeName, message, frames := exception.Capture(err)

	c.Assert(message, qt.Equals, "boom")
	c.Assert(typeName, qt.Not(qt.Equals), "")
	c.Assert(len(frames) > 0, qt.IsTrue)
}

func TestCaptureWithoutStackTrace(t *testing.T) {
	c := qt.New(t)
	err := fmt.Errorf("plain error")

	typeName, message, frames := exception.Capture(err)

	c.Assert(message, qt.Equals, "plain error")
	c.Assert(typeName, qt.Not(qt.Equals), "")
	c.Assert(frames, qt.HasLen, 0)
}
