package service

import (
	"github.com/gofrs/uuid"

	"github.com/octue/octue-sdk-go/backend"
	"github.com/octue/octue-sdk-go/exception"
	"github.com/octue/octue-sdk-go/pkg/errs"
	"github.com/octue/octue-sdk-go/pkg/logging"
	"github.com/octue/octue-sdk-go/transport"
)

// New constructs a Core. id selects the service's identity: a nil id
// generates a fresh uuid, a non-nil pointer to an empty string is
// rejected outright (an explicit but empty identity is almost always a
// caller mistake, not an instruction to generate one), and any other
// non-empty string is used as supplied.
func New(back backend.Backend, manager transport.Manager, run RunFunc, id *string, opts ...Option) (*Core, error) {
	resolvedID, err := resolveID(id)
	if err != nil {
		return nil, err
	}

	c := &Core{
		id:      resolvedID,
		backend: back,
		manager: manager,
		run:     run,
		logger:  logging.ForService(resolvedID, ""),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.name == "" {
		c.name = coolName(c.id)
	}
	c.logger = logging.ForService(c.id, c.name)

	return c, nil
}

func resolveID(id *string) (string, error) {
	if id == nil {
		generated, err := uuid.NewV4()
		if err != nil {
			return "", errs.B().Code(errs.Internal).Cause(err).Msg("failed to generate a service id").Err()
		}
		return generated.String(), nil
	}
	if *id == "" {
		return "", errs.B().Code(errs.InvalidArgument).Msg("service id must not be explicitly empty; pass nil to generate one").Err()
	}
	return *id, nil
}

func (c *Core) topicPath() string {
	return topicPath(c.id)
}

// exceptionRegistry returns the registry WaitForAnswer reconstructs remote
// exceptions with, building an empty one on first use if none was
// supplied via WithExceptionRegistry.
func (c *Core) exceptionRegistry() *exception.Registry {
	if c.exceptions == nil {
		c.exceptions = exception.NewRegistry(nil)
	}
	return c.exceptions
}
