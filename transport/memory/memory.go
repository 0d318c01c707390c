// Package memory implements the Transport Abstraction entirely in
// process memory. It is the runtime's test double, used the way the
// teacher's own pubsub/internal/test topic implementation is used: to
// exercise the Service Core's protocol logic without any network or cloud
// dependency.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/octue/octue-sdk-go/pkg/errs"
	"github.com/octue/octue-sdk-go/transport"
	"github.com/octue/octue-sdk-go/transport/internal/workers"
)

// pullConcurrency bounds how many messages a streaming Subscribe hands to
// its handler at once.
const pullConcurrency = 8

// Bus is the shared in-memory broker. Tests typically create one Bus and
// one Manager per test so state never leaks between tests.
type Bus struct {
	mu     sync.Mutex
	topics map[string]*topic
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{topics: make(map[string]*topic)}
}

// Manager adapts a Bus to the transport.Manager interface.
type Manager struct {
	bus *Bus
}

// NewManager returns a Manager backed by bus.
func NewManager(bus *Bus) *Manager {
	return &Manager{bus: bus}
}

func (m *Manager) CreateTopic(_ context.Context, name string, allowExisting bool) (transport.Topic, error) {
	m.bus.mu.Lock()
	defer m.bus.mu.Unlock()

	if t, ok := m.bus.topics[name]; ok {
		if !allowExisting {
			return nil, errs.B().Code(errs.AlreadyExists).Msgf("topic %q already exists", name).Err()
		}
		return t, nil
	}

	t := &topic{bus: m.bus, name: name, subs: make(map[string]*subscription)}
	m.bus.topics[name] = t
	return t, nil
}

func (m *Manager) TopicExists(_ context.Context, name string) (bool, error) {
	m.bus.mu.Lock()
	defer m.bus.mu.Unlock()
	_, ok := m.bus.topics[name]
	return ok, nil
}

func (m *Manager) CreateSubscription(_ context.Context, top transport.Topic, name string, allowExisting bool, pushEndpoint string, _ time.Duration) (transport.Subscription, error) {
	t, ok := top.(*topic)
	if !ok {
		return nil, errs.B().Code(errs.InvalidArgument).Msg("topic was not created by this memory transport").Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if sub, ok := t.subs[name]; ok {
		if !allowExisting {
			return nil, errs.B().Code(errs.AlreadyExists).Msgf("subscription %q already exists", name).Err()
		}
		return sub, nil
	}

	sub := &subscription{
		name:      name,
		topicName: t.name,
		push:      pushEndpoint != "",
		notify:    make(chan struct{}, 1),
		pending:   make(map[string]*transport.Message),
	}
	t.subs[name] = sub
	return sub, nil
}

type topic struct {
	bus  *Bus
	name string

	mu      sync.Mutex
	subs    map[string]*subscription
	msgSeq  uint64
	deleted bool
}

func (t *topic) Name() string { return t.name }

func (t *topic) Publish(ctx context.Context, data []byte, attrs map[string]string) transport.Future {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.deleted {
		return immediateFuture{err: errs.B().Code(errs.NotFound).Msgf("topic %q has been deleted", t.name).Err()}
	}

	id := fmt.Sprintf("%s-%d", t.name, atomic.AddUint64(&t.msgSeq, 1))
	attrsCopy := make(map[string]string, len(attrs))
	for k, v := range attrs {
		attrsCopy[k] = v
	}

	for _, sub := range t.subs {
		sub.enqueue(&transport.Message{
			ID:              id,
			AckID:           id,
			Attributes:      attrsCopy,
			Data:            append([]byte(nil), data...),
			Published:       time.Now(),
			DeliveryAttempt: 1,
		})
	}

	return immediateFuture{id: id}
}

func (t *topic) Delete(_ context.Context) error {
	t.bus.mu.Lock()
	defer t.bus.mu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleted = true
	delete(t.bus.topics, t.name)
	return nil
}

type immediateFuture struct {
	id  string
	err error
}

func (f immediateFuture) Get(_ context.Context) (string, error) { return f.id, f.err }

type subscription struct {
	name      string
	topicName string
	push      bool

	mu      sync.Mutex
	queue   []*transport.Message
	pending map[string]*transport.Message
	notify  chan struct{}
	deleted bool
}

func (s *subscription) Name() string { return s.name }
func (s *subscription) IsPush() bool { return s.push }

func (s *subscription) enqueue(msg *transport.Message) {
	s.mu.Lock()
	s.queue = append(s.queue, msg)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscription) Pull(ctx context.Context, max int, deadline time.Duration) ([]*transport.Message, error) {
	deadlineCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	for {
		s.mu.Lock()
		if s.deleted {
			s.mu.Unlock()
			return nil, errs.B().Code(errs.NotFound).Msgf("subscription %q has been deleted", s.name).Err()
		}
		if len(s.queue) > 0 {
			n := max
			if n <= 0 || n > len(s.queue) {
				n = len(s.queue)
			}
			batch := s.queue[:n]
			s.queue = s.queue[n:]
			for _, m := range batch {
				s.pending[m.AckID] = m
			}
			s.mu.Unlock()
			return batch, nil
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
			continue
		case <-deadlineCtx.Done():
			return nil, nil
		}
	}
}

func (s *subscription) Acknowledge(_ context.Context, ackIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ackIDs {
		delete(s.pending, id)
	}
	return nil
}

func (s *subscription) Subscribe(ctx context.Context, handler func(context.Context, *transport.Message) error) error {
	fetch := func(ctx context.Context, max int) ([]*transport.Message, error) {
		return s.Pull(ctx, max, 200*time.Millisecond)
	}
	process := func(ctx context.Context, msg *transport.Message) error {
		err := handler(ctx, msg)
		_ = s.Acknowledge(ctx, []string{msg.AckID})
		return err
	}
	return workers.Run(ctx, pullConcurrency, fetch, process)
}

func (s *subscription) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = true
	return nil
}
