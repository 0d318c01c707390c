package service

import "github.com/octue/octue-sdk-go/pkg/errs"

// panicError turns a recovered panic value into an *errs.Error, the same
// way every subscription handler in this runtime isolates one message's
// failure from crashing the whole process.
func panicError(r any) error {
	return errs.B().Code(errs.Internal).Msgf("run function panicked: %v", r).Err()
}
