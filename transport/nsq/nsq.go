// Package nsq binds the Transport Abstraction to NSQ, primarily for local
// development against a real (non-cloud) broker instead of a simulated
// one. NSQ topics/subscriptions are created implicitly by the daemon on
// first publish/subscribe, and NSQ has no client-library call to delete a
// topic outright (that lives behind nsqd's HTTP admin surface); Delete is
// therefore best-effort here and documented in DESIGN.md. Production
// deployments needing exact reply-channel teardown should use the GCP
// binding.
package nsq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nsqio/go-nsq"

	"github.com/octue/octue-sdk-go/pkg/errs"
	"github.com/octue/octue-sdk-go/transport"
)

// Manager adapts an NSQ daemon address to transport.Manager.
type Manager struct {
	addr string

	mu       sync.Mutex
	producer *nsq.Producer
	idSeq    uint64
}

// NewManager returns a Manager that will publish/subscribe against the NSQ
// daemon at addr ("host:port").
func NewManager(addr string) *Manager {
	return &Manager{addr: addr}
}

func (m *Manager) CreateTopic(_ context.Context, name string, _ bool) (transport.Topic, error) {
	return &topic{mgr: m, name: name}, nil
}

// TopicExists always reports true: NSQ has no client-library lookup for
// topic existence short of querying nsqlookupd, and topics are created
// implicitly by the daemon on first publish, so there is nothing durable
// to check without that dependency. Deployments that need the existence
// precondition enforced exactly should use the GCP or memory binding.
func (m *Manager) TopicExists(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (m *Manager) CreateSubscription(_ context.Context, top transport.Topic, name string, _ bool, pushEndpoint string, _ time.Duration) (transport.Subscription, error) {
	t, ok := top.(*topic)
	if !ok {
		return nil, errs.B().Code(errs.InvalidArgument).Msg("topic was not created by the NSQ transport").Err()
	}
	if pushEndpoint != "" {
		return nil, errs.B().Code(errs.InvalidArgument).Msg("push subscriptions are not supported by the NSQ transport").Err()
	}
	return &subscription{mgr: m, topicName: t.name, name: name}, nil
}

// envelope is the wire wrapper NSQ messages carry: NSQ itself has no
// notion of message attributes, so attrs travel alongside the payload.
type envelope struct {
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`
	Data       []byte            `json:"data"`
}

type topic struct {
	mgr  *Manager
	name string
}

func (t *topic) Name() string { return t.name }

func (t *topic) Publish(ctx context.Context, data []byte, attrs map[string]string) transport.Future {
	producer, err := t.mgr.producerClient()
	if err != nil {
		return immediateFuture{err: err}
	}

	id := fmt.Sprintf("%s-%d", t.name, atomic.AddUint64(&t.mgr.idSeq, 1))
	body, err := json.Marshal(envelope{ID: id, Attributes: attrs, Data: data})
	if err != nil {
		return immediateFuture{err: errs.B().Code(errs.InvalidArgument).Cause(err).Msg("failed to marshal nsq envelope").Err()}
	}

	if err := producer.Publish(t.name, body); err != nil {
		return immediateFuture{err: errs.B().Code(errs.Unavailable).Cause(err).Msg("failed to publish to nsqd").Err()}
	}
	return immediateFuture{id: id}
}

func (t *topic) Delete(_ context.Context) error {
	// Best-effort: see package doc.
	return nil
}

type immediateFuture struct {
	id  string
	err error
}

func (f immediateFuture) Get(_ context.Context) (string, error) { return f.id, f.err }

type subscription struct {
	mgr       *Manager
	topicName string
	name      string
}

func (s *subscription) Name() string { return s.name }
func (s *subscription) IsPush() bool { return false }

func (s *subscription) Pull(ctx context.Context, max int, deadline time.Duration) ([]*transport.Message, error) {
	var (
		mu       sync.Mutex
		received []*transport.Message
	)

	pullCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	err := s.consume(pullCtx, func(msg *transport.Message) error {
		mu.Lock()
		received = append(received, msg)
		n := len(received)
		mu.Unlock()
		if max > 0 && n >= max {
			cancel()
		}
		return nil
	})
	if err != nil && pullCtx.Err() == nil {
		return nil, err
	}
	return received, nil
}

// Acknowledge is a no-op: NSQ messages are finished (acked) or requeued
// from within the consumer handler itself, via the *nsq.Message that Pull
// and Subscribe already finish internally.
func (s *subscription) Acknowledge(_ context.Context, _ []string) error {
	return nil
}

func (s *subscription) Subscribe(ctx context.Context, handler func(context.Context, *transport.Message) error) error {
	return s.consume(ctx, func(msg *transport.Message) error {
		return handler(ctx, msg)
	})
}

func (s *subscription) consume(ctx context.Context, handle func(*transport.Message) error) error {
	cfg := nsq.NewConfig()
	consumer, err := nsq.NewConsumer(s.topicName, s.name, cfg)
	if err != nil {
		return errs.B().Code(errs.Internal).Cause(err).Msg("failed to create nsq consumer").Err()
	}

	consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
		var env envelope
		if err := json.Unmarshal(m.Body, &env); err != nil {
			return errs.B().Code(errs.InvalidArgument).Cause(err).Msg("failed to unmarshal nsq envelope").Err()
		}
		msg := &transport.Message{
			ID:              env.ID,
			AckID:           env.ID,
			Attributes:      env.Attributes,
			Data:            env.Data,
			Published:       time.Unix(0, m.Timestamp),
			DeliveryAttempt: int(m.Attempts),
		}
		return handle(msg)
	}))

	if err := consumer.ConnectToNSQD(s.mgr.addr); err != nil {
		return errs.B().Code(errs.Unavailable).Cause(err).Msg("failed to connect to nsqd").Err()
	}
	defer consumer.Stop()

	<-ctx.Done()
	return nil
}

func (s *subscription) Delete(_ context.Context) error {
	// Best-effort: see package doc.
	return nil
}

func (m *Manager) producerClient() (*nsq.Producer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.producer != nil {
		return m.producer, nil
	}
	p, err := nsq.NewProducer(m.addr, nsq.NewConfig())
	if err != nil {
		return nil, errs.B().Code(errs.Unavailable).Cause(err).Msg("failed to connect producer to nsqd").Err()
	}
	m.producer = p
	return p, nil
}
