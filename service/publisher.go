package service

import (
	"context"
	"time"

	"github.com/octue/octue-sdk-go/envelope"
	"github.com/octue/octue-sdk-go/retry"
	"github.com/octue/octue-sdk-go/transport"
)

// channelPublisher publishes every message for one question onto a
// single reply-channel topic, retrying transient transport failures up to
// deadline. It satisfies logforward.Publisher as well as this package's
// own terminal-message publishing, so the same retry and attribute
// behaviour applies uniformly to delivery acks, log records, monitor
// data, and the final result or error.
type channelPublisher struct {
	topic        transport.Topic
	questionUUID string
	deadline     time.Duration
}

func (p *channelPublisher) Publish(ctx context.Context, kind envelope.Kind, payload []byte, attrs map[string]string) error {
	merged := make(map[string]string, len(attrs)+2)
	for k, v := range attrs {
		merged[k] = v
	}
	merged[envelope.AttrQuestionUUID] = p.questionUUID
	merged[envelope.AttrKind] = string(kind)

	return retry.Do(ctx, p.deadline, func() error {
		_, err := p.topic.Publish(ctx, payload, merged).Get(ctx)
		return err
	})
}
