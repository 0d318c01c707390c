// Package errs provides the runtime's error taxonomy.
//
// The code set mirrors the transient/fatal split the transport abstraction
// needs: services exchange failures over a pub/sub transport, and the
// retry policy has to know, by code alone, whether a failure is worth
// retrying.
package errs

// Code classifies an error the way the transport and the retry policy see
// it, independent of which concrete transport produced it.
type Code int

const (
	// Unknown is returned when the underlying transport error doesn't map
	// to anything more specific.
	Unknown Code = iota

	// Canceled indicates the operation was canceled, typically by the
	// caller's context.
	Canceled

	// InvalidArgument indicates a malformed request: an empty service id,
	// an unparsable envelope, a manifest referencing local files when only
	// cloud locations are allowed.
	InvalidArgument

	// DeadlineExceeded means the operation did not complete before its
	// deadline. The retry policy treats this as transient; wait_for_answer
	// treats it as terminal once its own overall timeout is reached.
	DeadlineExceeded

	// NotFound means a topic or subscription a publish/pull expected to
	// exist did not. Transient during eventual-consistency windows right
	// after creation, hence retryable.
	NotFound

	// AlreadyExists means a create call with allow_existing=false hit a
	// resource that already exists.
	AlreadyExists

	// FailedPrecondition means the caller asked for something that isn't
	// possible given the system's current state, e.g. pulling from a push
	// subscription.
	FailedPrecondition

	// Aborted indicates a transient conflict at the broker.
	Aborted

	// ResourceExhausted indicates a quota or rate limit was hit.
	ResourceExhausted

	// Internal indicates a transport-side invariant was broken.
	Internal

	// Unavailable indicates the broker is transiently unreachable.
	Unavailable

	// PermissionDenied indicates the credentials supplied cannot perform
	// the requested operation. Not retried.
	PermissionDenied

	// Unauthenticated indicates no usable credentials were supplied.
	Unauthenticated
)

var codeNames = [...]string{
	Unknown:            "unknown",
	Canceled:           "canceled",
	InvalidArgument:    "invalid_argument",
	DeadlineExceeded:   "deadline_exceeded",
	NotFound:           "not_found",
	AlreadyExists:      "already_exists",
	FailedPrecondition: "failed_precondition",
	Aborted:            "aborted",
	ResourceExhausted:  "resource_exhausted",
	Internal:           "internal",
	Unavailable:        "unavailable",
	PermissionDenied:   "permission_denied",
	Unauthenticated:    "unauthenticated",
}

func (c Code) String() string {
	if int(c) < 0 || int(c) >= len(codeNames) {
		return "unknown"
	}
	return codeNames[c]
}

func (c Code) MarshalJSON() ([]byte, error) {
	return []byte("\"" + c.String() + "\""), nil
}

// Transient reports whether a failure with this code should be retried by
// the retry policy. This is exactly the set named in the transport
// abstraction's contract: not-found, aborted, deadline-exceeded, internal,
// resource-exhausted, unavailable, unknown, cancelled.
func (c Code) Transient() bool {
	switch c {
	case NotFound, Aborted, DeadlineExceeded, Internal, ResourceExhausted, Unavailable, Unknown, Canceled:
		return true
	default:
		return false
	}
}
