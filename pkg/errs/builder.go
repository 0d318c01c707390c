package errs

import "fmt"

// Builder allows gradual construction of an Error. The zero value is ready
// for use; call Err() to finish.
type Builder struct {
	code    Code
	codeSet bool
	msg     string
	meta    map[string]any
	cause   error
}

// B starts a new Builder.
func B() *Builder { return &Builder{} }

func (b *Builder) Code(c Code) *Builder {
	b.code = c
	b.codeSet = true
	return b
}

func (b *Builder) Msg(msg string) *Builder {
	b.msg = msg
	return b
}

func (b *Builder) Msgf(format string, args ...any) *Builder {
	b.msg = fmt.Sprintf(format, args...)
	return b
}

// Meta attaches a single metadata key-value pair. Safe to call multiple
// times.
func (b *Builder) Meta(key string, value any) *Builder {
	if b.meta == nil {
		b.meta = map[string]any{}
	}
	b.meta[key] = value
	return b
}

// Cause sets the underlying error. If cause is itself an *Error and Code
// has not been set explicitly, the code is inherited from it.
func (b *Builder) Cause(err error) *Builder {
	b.cause = err
	if e, ok := err.(*Error); ok && !b.codeSet {
		b.code = e.Code
		b.codeSet = true
	}
	return b
}

// Err builds the *Error. It never returns nil. If Code was never set, it
// defaults to Unknown; if Msg was never set and there's no cause, the
// message defaults to "unknown error".
func (b *Builder) Err() error {
	code := b.code
	msg := b.msg
	if msg == "" && b.cause == nil {
		msg = "unknown error"
	}
	return &Error{
		Code:       code,
		Message:    msg,
		Meta:       b.meta,
		underlying: b.cause,
	}
}
