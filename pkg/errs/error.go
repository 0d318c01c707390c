package errs

import (
	"errors"
	"fmt"
)

// Error is the runtime's error type. It carries a Code so callers -
// notably the retry policy and the boundary between asker and transport -
// can make decisions without string matching, and an optional set of
// metadata key-value pairs for logging.
type Error struct {
	Code    Code
	Message string
	Meta    map[string]any

	underlying error
}

func (e *Error) Error() string {
	if e.underlying != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.underlying
}

// CodeOf extracts the Code from err if it (or something it wraps) is an
// *Error, otherwise it returns Unknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unknown
}
