// Package transport defines the narrow interface every pub/sub binding
// (GCP Pub/Sub, NSQ, or an in-memory bus for tests) must satisfy. Every
// other component in this module - the Service Core, the Child Handle,
// the log/monitor forwarder - talks only to this interface, never to a
// concrete cloud SDK.
package transport

import (
	"context"
	"time"
)

// Message is one received message: its payload, its attributes, and
// whatever the transport needs to acknowledge it later.
type Message struct {
	ID         string
	AckID      string
	Attributes map[string]string
	Data       []byte
	Published  time.Time

	// DeliveryAttempt is 1 on first delivery and increments on redelivery.
	// Not all bindings can report this; 1 is a safe default.
	DeliveryAttempt int
}

// Future resolves once the broker has acknowledged receipt of a publish.
type Future interface {
	// Get blocks until the publish completes, returning the broker's
	// assigned message id.
	Get(ctx context.Context) (id string, err error)
}

// Topic is a handle to a named topic on the transport.
type Topic interface {
	Name() string

	// Publish sends data with attrs and returns a Future for the broker's
	// acknowledgement. Errors should be classified using the *errs.Error
	// codes in package errs so the retry policy can tell transient
	// failures from fatal ones.
	Publish(ctx context.Context, data []byte, attrs map[string]string) Future

	// Delete removes the topic. Idempotent: deleting an already-deleted
	// topic is not an error.
	Delete(ctx context.Context) error
}

// Subscription is a handle to a subscription on some Topic.
type Subscription interface {
	Name() string

	// IsPush reports whether this subscription delivers via a push
	// endpoint rather than being pullable. Reply channels must never be
	// push subscriptions (see Manager.CreateSubscription).
	IsPush() bool

	// Pull fetches up to max messages, waiting at most deadline for at
	// least one to arrive. It may return fewer than max, including zero,
	// without that being an error.
	Pull(ctx context.Context, max int, deadline time.Duration) ([]*Message, error)

	// Acknowledge marks the given ack ids as processed so they are not
	// redelivered.
	Acknowledge(ctx context.Context, ackIDs []string) error

	// Subscribe starts a long-running streaming pull, invoking handler
	// for each message until ctx is canceled. handler's returned error,
	// if non-nil, nacks the message (where the binding supports nack);
	// otherwise it is acknowledged. Subscribe blocks until ctx is done or
	// a fatal transport error occurs.
	Subscribe(ctx context.Context, handler func(context.Context, *Message) error) error

	// Delete removes the subscription. Idempotent.
	Delete(ctx context.Context) error
}

// Manager constructs and tears down topics and subscriptions for one
// transport binding. A Backend value selects which Manager implementation
// the Service Core uses (see package backend).
type Manager interface {
	// CreateTopic creates (or, if allowExisting, looks up) a topic by
	// name.
	CreateTopic(ctx context.Context, name string, allowExisting bool) (Topic, error)

	// CreateSubscription creates (or, if allowExisting, looks up) a pull
	// subscription on topic. pushEndpoint, if non-empty, makes it a push
	// subscription instead - callers creating reply channels must always
	// pass "".
	CreateSubscription(ctx context.Context, topic Topic, name string, allowExisting bool, pushEndpoint string, expiration time.Duration) (Subscription, error)

	// TopicExists reports whether a topic by this name already exists,
	// without creating one. Used to check a child's inbox exists before a
	// question is ever published to it.
	TopicExists(ctx context.Context, name string) (bool, error)
}
