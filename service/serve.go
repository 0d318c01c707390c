package service

import (
	"context"
	"time"

	"github.com/octue/octue-sdk-go/envelope"
	"github.com/octue/octue-sdk-go/transport"
)

// Serve starts the Core accepting questions on its own topic, answering
// each one asynchronously with Answer, until opts.Timeout elapses or ctx
// is canceled. It blocks for the duration of that wait.
func (c *Core) Serve(ctx context.Context, opts ServeOptions) error {
	topic, err := c.manager.CreateTopic(ctx, c.topicPath(), true)
	if err != nil {
		return err
	}

	sub, err := c.manager.CreateSubscription(ctx, topic, c.topicPath(), true, "", 0)
	if err != nil {
		return err
	}

	answerTimeout := opts.AnswerTimeout
	if answerTimeout <= 0 {
		answerTimeout = 30 * time.Second
	}

	serveCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		serveCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	c.logger.Debug().Str("topic", c.topicPath()).Msg("waiting for questions")

	err = sub.Subscribe(serveCtx, func(msgCtx context.Context, msg *transport.Message) error {
		return c.handleQuestion(msgCtx, msg, answerTimeout)
	})

	if opts.CleanupOnExit {
		if delErr := sub.Delete(ctx); delErr != nil {
			c.logger.Warn().Err(delErr).Msg("failed to delete server subscription on exit")
		}
		if delErr := topic.Delete(ctx); delErr != nil {
			c.logger.Warn().Err(delErr).Msg("failed to delete server topic on exit")
		}
	}

	return err
}

// handleQuestion decodes one received question and answers it. A question
// with no question_uuid attribute or a malformed envelope is logged and
// dropped (nil is returned, so the message is acknowledged). Only a failure
// to answer is returned as an error, which nacks the underlying message
// where the transport supports it.
func (c *Core) handleQuestion(ctx context.Context, msg *transport.Message, answerTimeout time.Duration) error {
	questionUUID := msg.Attributes[envelope.AttrQuestionUUID]
	if questionUUID == "" {
		c.logger.Error().Msg("received a question with no question_uuid attribute; dropping")
		return nil
	}

	forwardLogs := msg.Attributes[envelope.AttrForwardLogs] != "false"

	q, err := envelope.DecodeQuestion(msg.Data)
	if err != nil {
		c.logger.Error().Err(err).Str("question_uuid", questionUUID).Msg("received a malformed question; dropping")
		return nil
	}

	c.logger.Info().Str("question_uuid", questionUUID).Msg("received a question")

	if err := c.Answer(ctx, q, forwardLogs, questionUUID, answerTimeout); err != nil {
		c.logger.Error().Err(err).Str("question_uuid", questionUUID).Msg("failed to answer question")
		return err
	}
	return nil
}
