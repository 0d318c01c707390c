package backend

import (
	"context"

	"github.com/octue/octue-sdk-go/pkg/errs"
	"github.com/octue/octue-sdk-go/transport"
	"github.com/octue/octue-sdk-go/transport/gcp"
	"github.com/octue/octue-sdk-go/transport/memory"
	"github.com/octue/octue-sdk-go/transport/nsq"
)

// NewManager builds the transport.Manager a Backend describes, resolving
// credentials through creds if the backend names a credentials
// environment variable. bus is only consulted for Kind == Memory and may
// be nil otherwise.
func NewManager(ctx context.Context, b Backend, creds CredentialsProvider, bus *memory.Bus) (transport.Manager, error) {
	switch b.Kind {
	case GCPPubSub:
		credentialsJSON, err := creds.Credentials(b.CredentialsEnvVar)
		if err != nil {
			return nil, err
		}
		return gcp.NewManager(ctx, b.ProjectID, credentialsJSON)

	case NSQ:
		if b.NSQAddr == "" {
			return nil, errs.B().Code(errs.InvalidArgument).Msg("NSQ backend requires NSQAddr").Err()
		}
		return nsq.NewManager(b.NSQAddr), nil

	case Memory:
		if bus == nil {
			bus = memory.NewBus()
		}
		return memory.NewManager(bus), nil

	default:
		return nil, errs.B().Code(errs.InvalidArgument).Msgf("unrecognised backend kind %q", b.Kind).Err()
	}
}
