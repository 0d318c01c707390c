package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid"

	"github.com/octue/octue-sdk-go/envelope"
	"github.com/octue/octue-sdk-go/pkg/errs"
	"github.com/octue/octue-sdk-go/retry"
)

// Ask sends a question to childID, creating the single-use reply channel
// the child's answer (and any intermediate messages) will arrive on. It
// returns a ReplyChannel to pass to WaitForAnswer and the question's uuid.
//
// Ask never blocks waiting for an answer; that is WaitForAnswer's job,
// kept separate so a caller asking several children at once can fire off
// every question before waiting on any of them.
func (c *Core) Ask(ctx context.Context, childID string, inputValues any, opts AskOptions) (*ReplyChannel, string, error) {
	exists, err := c.manager.TopicExists(ctx, topicPath(childID))
	if err != nil {
		return nil, "", err
	}
	if !exists {
		return nil, "", errServiceNotFound(childID)
	}

	var serialisedManifest *string
	if opts.InputManifest != nil {
		if !opts.AllowLocalFiles && !opts.InputManifest.AllDatasetsAreInCloud() {
			return nil, "", errFileLocationError()
		}
		serialised, err := opts.InputManifest.Serialise()
		if err != nil {
			return nil, "", errs.B().Code(errs.InvalidArgument).Cause(err).Msg("failed to serialise input manifest").Err()
		}
		serialisedManifest = &serialised
	}

	questionUUID := opts.QuestionUUID
	if questionUUID == "" {
		generated, err := uuid.NewV4()
		if err != nil {
			return nil, "", errs.B().Code(errs.Internal).Cause(err).Msg("failed to generate a question uuid").Err()
		}
		questionUUID = generated.String()
	}

	channelName := replyChannelName(childID, questionUUID)

	replyTopic, err := c.manager.CreateTopic(ctx, topicPath(channelName), false)
	if err != nil {
		if errs.CodeOf(err) == errs.AlreadyExists {
			return nil, "", errQuestionUUIDCollision(questionUUID)
		}
		return nil, "", err
	}

	replySub, err := c.manager.CreateSubscription(ctx, replyTopic, topicPath(channelName), false, "", 0)
	if err != nil {
		_ = replyTopic.Delete(ctx)
		return nil, "", err
	}

	data, err := envelope.EncodeQuestion(inputValues, serialisedManifest)
	if err != nil {
		return nil, "", err
	}

	forwardLogs := true
	if opts.ForwardLogs != nil {
		forwardLogs = *opts.ForwardLogs
	}

	attrs := map[string]string{
		envelope.AttrQuestionUUID: questionUUID,
		envelope.AttrForwardLogs:  boolAttr(forwardLogs),
	}
	if opts.PushEndpoint != "" {
		// Carried for forward-compatibility only; this runtime's reply
		// channel is always a pull subscription, never the child's own
		// push endpoint.
		attrs["push_endpoint"] = opts.PushEndpoint
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	childTopic, err := c.manager.CreateTopic(ctx, topicPath(childID), true)
	if err != nil {
		return nil, "", err
	}

	publish := func(ctx context.Context) error {
		return retry.Do(ctx, timeout, func() error {
			_, err := childTopic.Publish(ctx, data, attrs).Get(ctx)
			return err
		})
	}

	if err := publish(ctx); err != nil {
		return nil, "", err
	}

	c.logger.Debug().Str("child_id", childID).Str("question_uuid", questionUUID).Msg("asked question")

	return &ReplyChannel{
		topic:        replyTopic,
		sub:          replySub,
		childID:      childID,
		questionUUID: questionUUID,
		republish:    publish,
	}, questionUUID, nil
}

func boolAttr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
