// Package exception implements the Exception Mapping component: a
// registry from a remote exception's type name to a local constructor, so
// that when a child's answer envelope carries an exception_type the asker
// raises something closer to the "real" error than a bag of strings.
//
// Unknown type names never cause a silent coercion: they fall back to a
// Generic error that still carries the original message and traceback.
package exception

import (
	"fmt"
	"strings"

	"github.com/octue/octue-sdk-go/envelope"
)

// Constructor builds a local error from a remote exception's message. It
// is never given the traceback directly; Registry.Reconstruct attaches that
// uniformly to whatever Constructor returns.
type Constructor func(message string) error

// Registry maps remote exception type names to local constructors. It is
// built once at startup and is immutable afterwards, so concurrent use by
// many in-flight wait_for_answer calls needs no locking.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry builds a Registry seeded with the constructors passed in.
// Pass nil or an empty map to start with only the generic fallback.
func NewRegistry(constructors map[string]Constructor) *Registry {
	r := &Registry{constructors: make(map[string]Constructor, len(constructors))}
	for name, ctor := range constructors {
		r.constructors[name] = ctor
	}
	return r
}

// Register adds or replaces the constructor for typeName. It is not safe
// to call concurrently with Reconstruct; register everything before serving.
func (r *Registry) Register(typeName string, ctor Constructor) {
	r.constructors[typeName] = ctor
}

// Reconstruct builds the error an asker should raise for a terminal answer
// envelope that carries an exception. If typeName is registered, the
// returned error wraps whatever its Constructor produces; otherwise a
// *Generic is returned, which still preserves typeName and message.
func (r *Registry) Reconstruct(typeName, message string, frames []envelope.Frame) error {
	ctor, ok := r.constructors[typeName]
	if !ok {
		return &Generic{TypeName: typeName, Message: message, Frames: frames}
	}
	return &Remote{TypeName: typeName, Frames: frames, err: ctor(message)}
}

// Generic is raised when the remote exception's type name has no local
// constructor registered. Its message and traceback are preserved exactly
// as received.
type Generic struct {
	TypeName string
	Message  string
	Frames   []envelope.Frame
}

func (e *Generic) Error() string {
	return fmt.Sprintf("%s: %s", e.TypeName, e.Message)
}

// Traceback renders the remote stack frames as printable text.
func (e *Generic) Traceback() string {
	return formatFrames(e.Frames)
}

// Remote wraps a locally-constructed error for a remote exception whose
// type name was registered, attaching the original traceback frames.
type Remote struct {
	TypeName string
	Frames   []envelope.Frame
	err      error
}

func (e *Remote) Error() string { return e.err.Error() }
func (e *Remote) Unwrap() error { return e.err }
func (e *Remote) Traceback() string {
	return formatFrames(e.Frames)
}

func formatFrames(frames []envelope.Frame) string {
	var b strings.Builder
	b.WriteString("Traceback (most recent call last):\n")
	for _, f := range frames {
		fmt.Fprintf(&b, "  File %q, line %d, in %s\n    %s\n", f.File, f.Line, f.Function, f.Text)
	}
	return b.String()
}
