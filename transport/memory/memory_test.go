package memory_test

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/octue/octue-sdk-go/pkg/errs"
	"github.com/octue/octue-sdk-go/transport/memory"
)

func TestPublishFansOutToAllSubscriptions(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	manager := memory.NewManager(memory.NewBus())

	topic, err := manager.CreateTopic(ctx, "t", false)
	c.Assert(err, qt.IsNil)

	subA, err := manager.CreateSubscription(ctx, topic, "a", false, "", 0)
	c.Assert(err, qt.IsNil)
	subB, err := manager.CreateSubscription(ctx, topic, "b", false, "", 0)
	c.Assert(err, qt.IsNil)

	_, err = topic.Publish(ctx, []byte("hello"), nil).Get(ctx)
	c.Assert(err, qt.IsNil)

	msgsA, err := subA.Pull(ctx, 1, 100*time.Millisecond)
	c.Assert(err, qt.IsNil)
	c.Assert(msgsA, qt.HasLen, 1)
	c.Assert(string(msgsA[0].Data), qt.Equals, "hello")

	msgsB, err := subB.Pull(ctx, 1, 100*time.Millisecond)
	c.Assert(err, qt.IsNil)
	c.Assert(msgsB, qt.HasLen, 1)
}

func TestCreateTopicRejectsCollisionWithoutAllowExisting(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	manager := memory.NewManager(memory.NewBus())

	_, err := manager.CreateTopic(ctx, "dup", false)
	c.Assert(err, qt.IsNil)

	_, err = manager.CreateTopic(ctx, "dup", false)
	c.Assert(errs.CodeOf(err), qt.Equals, errs.AlreadyExists)
}

func TestCreateTopicIdempotentWithAllowExisting(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	manager := memory.NewManager(memory.NewBus())

	first, err := manager.CreateTopic(ctx, "shared", true)
	c.Assert(err, qt.IsNil)

	second, err := manager.CreateTopic(ctx, "shared", true)
	c.Assert(err, qt.IsNil)
	c.Assert(second.Name(), qt.Equals, first.Name())
}

func TestTopicExists(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	manager := memory.NewManager(memory.NewBus())

	exists, err := manager.TopicExists(ctx, "missing")
	c.Assert(err, qt.IsNil)
	c.Assert(exists, qt.IsFalse)

	_, err = manager.CreateTopic(ctx, "present", false)
	c.Assert(err, qt.IsNil)

	exists, err = manager.TopicExists(ctx, "present")
	c.Assert(err, qt.IsNil)
	c.Assert(exists, qt.IsTrue)
}

func TestPullReturnsEmptyOnDeadlineWithNoMessages(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	manager := memory.NewManager(memory.NewBus())

	topic, err := manager.CreateTopic(ctx, "t", false)
	c.Assert(err, qt.IsNil)
	sub, err := manager.CreateSubscription(ctx, topic, "s", false, "", 0)
	c.Assert(err, qt.IsNil)

	msgs, err := sub.Pull(ctx, 1, 20*time.Millisecond)
	c.Assert(err, qt.IsNil)
	c.Assert(msgs, qt.HasLen, 0)
}

func TestAcknowledgeRemovesFromPending(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	manager := memory.NewManager(memory.NewBus())

	topic, err := manager.CreateTopic(ctx, "t", false)
	c.Assert(err, qt.IsNil)
	sub, err := manager.CreateSubscription(ctx, topic, "s", false, "", 0)
	c.Assert(err, qt.IsNil)

	_, err = topic.Publish(ctx, []byte("x"), nil).Get(ctx)
	c.Assert(err, qt.IsNil)

	msgs, err := sub.Pull(ctx, 1, 100*time.Millisecond)
	c.Assert(err, qt.IsNil)
	c.Assert(msgs, qt.HasLen, 1)

	err = sub.Acknowledge(ctx, []string{msgs[0].AckID})
	c.Assert(err, qt.IsNil)
}

func TestPublishToDeletedTopicFails(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	manager := memory.NewManager(memory.NewBus())

	topic, err := manager.CreateTopic(ctx, "t", false)
	c.Assert(err, qt.IsNil)
	c.Assert(topic.Delete(ctx), qt.IsNil)

	_, err = topic.Publish(ctx, []byte("x"), nil).Get(ctx)
	c.Assert(errs.CodeOf(err), qt.Equals, errs.NotFound)
}
