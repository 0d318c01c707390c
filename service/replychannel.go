package service

import (
	"context"

	"github.com/octue/octue-sdk-go/transport"
)

// ReplyChannel is the single-use topic and subscription an Ask call
// creates to receive one question's delivery acknowledgement, forwarded
// logs and monitor data, and eventual terminal answer. It is owned
// exclusively by the Core that created it; WaitForAnswer tears it down on
// every exit path.
type ReplyChannel struct {
	topic transport.Topic
	sub   transport.Subscription

	childID      string
	questionUUID string

	// republish re-sends the original question, used when no
	// delivery_ack arrives in time.
	republish func(ctx context.Context) error
}

// QuestionUUID returns the uuid of the question this channel answers.
func (r *ReplyChannel) QuestionUUID() string { return r.questionUUID }

// Delete tears down the reply channel's subscription and topic. It is
// idempotent and safe to call even if WaitForAnswer already did so.
func (r *ReplyChannel) Delete(ctx context.Context) {
	if err := r.sub.Delete(ctx); err != nil {
		_ = err // best-effort: the channel is single-use and about to be forgotten regardless
	}
	if err := r.topic.Delete(ctx); err != nil {
		_ = err
	}
}
