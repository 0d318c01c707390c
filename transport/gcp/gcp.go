// Package gcp binds the Transport Abstraction to Google Cloud Pub/Sub.
package gcp

import (
	"context"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/octue/octue-sdk-go/pkg/errs"
	"github.com/octue/octue-sdk-go/transport"
)

// Manager adapts a *pubsub.Client to transport.Manager.
type Manager struct {
	client    *pubsub.Client
	projectID string
}

// NewManager dials a GCP Pub/Sub client for projectID. credentialsJSON, if
// non-empty, is used as a service account key; otherwise the client falls
// back to application default credentials, matching how a deployment with
// ambient credentials (e.g. running on GCE/GKE) is expected to work.
func NewManager(ctx context.Context, projectID string, credentialsJSON string) (*Manager, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errs.B().Code(errs.Unavailable).Cause(err).Msg("failed to create GCP pubsub client").Err()
	}
	return &Manager{client: client, projectID: projectID}, nil
}

func (m *Manager) CreateTopic(ctx context.Context, name string, allowExisting bool) (transport.Topic, error) {
	t := m.client.Topic(name)
	exists, err := t.Exists(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if !exists {
		t, err = m.client.CreateTopic(ctx, name)
		if err != nil {
			return nil, classify(err)
		}
	} else if !allowExisting {
		return nil, errs.B().Code(errs.AlreadyExists).Msgf("topic %q already exists", name).Err()
	}

	// Minimum-latency batching: at most one message per batch, per the
	// runtime's contract for publisher clients.
	t.PublishSettings.CountThreshold = 1
	t.PublishSettings.DelayThreshold = time.Millisecond

	return &topic{client: m.client, pubsubTopic: t, name: name}, nil
}

func (m *Manager) TopicExists(ctx context.Context, name string) (bool, error) {
	exists, err := m.client.Topic(name).Exists(ctx)
	if err != nil {
		return false, classify(err)
	}
	return exists, nil
}

func (m *Manager) CreateSubscription(ctx context.Context, top transport.Topic, name string, allowExisting bool, pushEndpoint string, expiration time.Duration) (transport.Subscription, error) {
	t, ok := top.(*topic)
	if !ok {
		return nil, errs.B().Code(errs.InvalidArgument).Msg("topic was not created by the GCP transport").Err()
	}

	sub := m.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, classify(err)
	}

	if !exists {
		cfg := pubsub.SubscriptionConfig{Topic: t.pubsubTopic}
		if pushEndpoint != "" {
			cfg.PushConfig = pubsub.PushConfig{Endpoint: pushEndpoint}
		}
		if expiration > 0 {
			cfg.ExpirationPolicy = expiration
		}
		sub, err = m.client.CreateSubscription(ctx, name, cfg)
		if err != nil {
			return nil, classify(err)
		}
	} else if !allowExisting {
		return nil, errs.B().Code(errs.AlreadyExists).Msgf("subscription %q already exists", name).Err()
	}

	return &subscription{pubsubSub: sub, name: name, push: pushEndpoint != ""}, nil
}

type topic struct {
	client      *pubsub.Client
	pubsubTopic *pubsub.Topic
	name        string
}

func (t *topic) Name() string { return t.name }

func (t *topic) Publish(ctx context.Context, data []byte, attrs map[string]string) transport.Future {
	res := t.pubsubTopic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	return futureAdapter{res: res}
}

func (t *topic) Delete(ctx context.Context) error {
	if err := t.pubsubTopic.Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return classify(err)
	}
	return nil
}

type futureAdapter struct {
	res *pubsub.PublishResult
}

func (f futureAdapter) Get(ctx context.Context) (string, error) {
	id, err := f.res.Get(ctx)
	if err != nil {
		return "", classify(err)
	}
	return id, nil
}

type subscription struct {
	pubsubSub *pubsub.Subscription
	name      string
	push      bool
}

func (s *subscription) Name() string { return s.name }
func (s *subscription) IsPush() bool { return s.push }

func (s *subscription) Pull(ctx context.Context, max int, deadline time.Duration) ([]*transport.Message, error) {
	pullCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var received []*transport.Message
	count := 0
	err := s.pubsubSub.Receive(pullCtx, func(ctx context.Context, m *pubsub.Message) {
		// The underlying client library only supports acking via the
		// Message handle inside this callback, not by ack id afterwards,
		// so Pull acks eagerly on receipt; see Acknowledge below.
		m.Ack()
		received = append(received, toMessage(m))
		count++
		if max > 0 && count >= max {
			cancel()
		}
	})
	if err != nil && pullCtx.Err() == nil {
		return nil, classify(err)
	}
	return received, nil
}

// Acknowledge is a no-op for this binding: Pull already acks eagerly and
// Subscribe acks/nacks through the Message handle, since the underlying
// client library has no separate ack-by-id call.
func (s *subscription) Acknowledge(_ context.Context, _ []string) error {
	return nil
}

func (s *subscription) Subscribe(ctx context.Context, handler func(context.Context, *transport.Message) error) error {
	err := s.pubsubSub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		if err := handler(ctx, toMessage(m)); err != nil {
			m.Nack()
			return
		}
		m.Ack()
	})
	if err != nil && ctx.Err() == nil {
		return classify(err)
	}
	return nil
}

func (s *subscription) Delete(ctx context.Context) error {
	if err := s.pubsubSub.Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return classify(err)
	}
	return nil
}

func toMessage(m *pubsub.Message) *transport.Message {
	attempt := 1
	if m.DeliveryAttempt != nil {
		attempt = *m.DeliveryAttempt
	}
	return &transport.Message{
		ID:              m.ID,
		AckID:           m.ID,
		Attributes:      m.Attributes,
		Data:            m.Data,
		Published:       m.PublishTime,
		DeliveryAttempt: attempt,
	}
}

// classify maps a GCP/gRPC error onto the runtime's error taxonomy so the
// retry policy can tell transient failures from fatal ones without
// depending on the gRPC status package directly at every call site.
func classify(err error) error {
	if err == nil {
		return nil
	}
	code := errs.Unknown
	switch status.Code(err) {
	case codes.NotFound:
		code = errs.NotFound
	case codes.AlreadyExists:
		code = errs.AlreadyExists
	case codes.InvalidArgument:
		code = errs.InvalidArgument
	case codes.FailedPrecondition:
		code = errs.FailedPrecondition
	case codes.Aborted:
		code = errs.Aborted
	case codes.DeadlineExceeded:
		code = errs.DeadlineExceeded
	case codes.ResourceExhausted:
		code = errs.ResourceExhausted
	case codes.Unavailable:
		code = errs.Unavailable
	case codes.Internal:
		code = errs.Internal
	case codes.Canceled:
		code = errs.Canceled
	case codes.PermissionDenied:
		code = errs.PermissionDenied
	case codes.Unauthenticated:
		code = errs.Unauthenticated
	}
	return errs.B().Code(code).Cause(err).Msg("gcp pubsub operation failed").Err()
}
