package service

import "github.com/octue/octue-sdk-go/pkg/errs"

// boundaryMeta is the Meta key an asker-visible failure mode is tagged
// with, letting callers distinguish "no such child" from "timed out"
// from "the child's manifest precondition failed" without string
// matching on the error message.
const boundaryMeta = "boundary"

const (
	boundaryServiceNotFound        = "service_not_found"
	boundaryFileLocationError      = "file_location_error"
	boundaryPushSubscriptionNoPull = "push_subscription_cannot_be_pulled"
	boundaryInvalidMonitorMessage  = "invalid_monitor_message"
	boundaryTimeout                = "timeout"
	boundaryQuestionUUIDCollision  = "question_uuid_collision"
)

func errServiceNotFound(childID string) error {
	return errs.B().Code(errs.NotFound).Meta(boundaryMeta, boundaryServiceNotFound).Msgf("service %q cannot be found", childID).Err()
}

func errFileLocationError() error {
	return errs.B().Code(errs.InvalidArgument).Meta(boundaryMeta, boundaryFileLocationError).
		Msg("all datasets of the input manifest must be uploaded to the cloud before asking a service to analyse them").Err()
}

func errPushSubscriptionCannotBePulled() error {
	return errs.B().Code(errs.FailedPrecondition).Meta(boundaryMeta, boundaryPushSubscriptionNoPull).
		Msg("a push subscription cannot be used as a reply channel").Err()
}

func errTimeout(msg string) error {
	return errs.B().Code(errs.DeadlineExceeded).Meta(boundaryMeta, boundaryTimeout).Msg(msg).Err()
}

func errQuestionUUIDCollision(questionUUID string) error {
	return errs.B().Code(errs.AlreadyExists).Meta(boundaryMeta, boundaryQuestionUUIDCollision).
		Msgf("a reply channel already exists for question %q", questionUUID).Err()
}

// boundaryKind extracts the asker-visible failure mode tag from err, if
// any. Callers comparing against the boundary* constants in this file
// from outside the package should instead use the Is* helpers below.
func boundaryKind(err error) string {
	var e *errs.Error
	if ee, ok := err.(*errs.Error); ok {
		e = ee
	} else {
		return ""
	}
	if e.Meta == nil {
		return ""
	}
	kind, _ := e.Meta[boundaryMeta].(string)
	return kind
}

// IsServiceNotFound reports whether err is the failure Ask returns when
// the child id names no existing service.
func IsServiceNotFound(err error) bool { return boundaryKind(err) == boundaryServiceNotFound }

// IsFileLocationError reports whether err is the failure Ask returns when
// an input manifest references datasets that are not yet in the cloud.
func IsFileLocationError(err error) bool { return boundaryKind(err) == boundaryFileLocationError }

// IsTimeout reports whether err is the failure WaitForAnswer returns when
// no terminal message arrives before its deadline.
func IsTimeout(err error) bool { return boundaryKind(err) == boundaryTimeout }

// IsInvalidMonitorMessage reports whether err is the failure returned when
// a monitor message fails validation.
func IsInvalidMonitorMessage(err error) bool {
	return boundaryKind(err) == boundaryInvalidMonitorMessage
}
