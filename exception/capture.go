package exception

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/pkg/errors"

	"github.com/octue/octue-sdk-go/envelope"
)

// stackTracer is implemented by errors created or wrapped with
// github.com/pkg/errors, which is how this runtime captures a traceback
// for an error raised locally by a run function (the language gives no
// other way to recover one after the fact).
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Capture turns a locally-raised error into the (type name, message,
// frames) triple an answer envelope's exception fields need. If err (or
// something it wraps) was built with github.com/pkg/errors, its captured
// stack becomes the traceback; otherwise the traceback is empty and only
// the type name and message survive.
func Capture(err error) (typeName, message string, frames []envelope.Frame) {
	typeName = typeNameOf(err)
	message = err.Error()

	var st stackTracer
	if errors.As(err, &st) {
		frames = framesFromStack(st.StackTrace())
	}
	return typeName, message, frames
}

// typeNameOf reports a Go type name suitable for display, unwrapping
// pointer types to their element and qualifying it with its full package
// path, so "*errs.Error" reads as
// "github.com/octue/octue-sdk-go/pkg/errs.Error".
func typeNameOf(err error) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return "error"
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return fmt.Sprintf("%s.%s", t.PkgPath(), t.Name())
}

func framesFromStack(st errors.StackTrace) []envelope.Frame {
	frames := make([]envelope.Frame, 0, len(st))
	for _, f := range st {
		line, _ := strconv.Atoi(fmt.Sprintf("%d", f))
		frames = append(frames, envelope.Frame{
			File:     fmt.Sprintf("%s", f),
			Function: fmt.Sprintf("%n", f),
			Line:     line,
		})
	}
	return frames
}
