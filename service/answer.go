package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/octue/octue-sdk-go/envelope"
	"github.com/octue/octue-sdk-go/exception"
	"github.com/octue/octue-sdk-go/logforward"
)

// Answer runs the Core's run function against a decoded question and
// publishes the result (or the captured exception) to the reply
// channel the asker already created. It is invoked once per received
// question, from the handler Serve installs.
//
// A panic in the run function is recovered and turned into an Internal
// error answer rather than crashing the server, mirroring how every
// subscription handler in this runtime isolates one question's failure
// from the next.
func (c *Core) Answer(ctx context.Context, q envelope.Question, forwardLogs bool, questionUUID string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	replyTopicName := replyChannelName(c.id, questionUUID)
	replyTopic, err := c.manager.CreateTopic(ctx, topicPath(replyTopicName), true)
	if err != nil {
		c.logger.Error().Err(err).Str("question_uuid", questionUUID).Msg("failed to obtain reply channel topic")
		return err
	}

	pub := &channelPublisher{topic: replyTopic, questionUUID: questionUUID, deadline: timeout}

	if err := pub.Publish(ctx, envelope.KindDeliveryAck, nil, nil); err != nil {
		c.logger.Warn().Err(err).Str("question_uuid", questionUUID).Msg("failed to publish delivery acknowledgement")
	}

	logger := logforward.NewLogger(pub, questionUUID, c.name, forwardLogs)
	monitor := logforward.NewMonitorEmitter(pub, questionUUID, c.validateMon)

	question := Question{InputValues: q.InputValues, InputManifest: q.InputManifest}
	result, runErr := c.invoke(ctx, question, logger, monitor)
	if runErr != nil {
		typeName, message, frames := exception.Capture(runErr)
		data, encodeErr := envelope.EncodeError(typeName, message, frames)
		if encodeErr != nil {
			return encodeErr
		}
		return pub.Publish(ctx, envelope.KindError, data, nil)
	}

	var outputManifest *string
	if result.OutputManifest != nil {
		serialised, err := result.OutputManifest.Serialise()
		if err != nil {
			return err
		}
		outputManifest = &serialised
	}

	data, err := envelope.EncodeResult(result.OutputValues, outputManifest)
	if err != nil {
		return err
	}
	return pub.Publish(ctx, envelope.KindResult, data, nil)
}

// invoke calls the run function, recovering any panic into an error
// instead of letting it cross into the subscription handler and take the
// whole serve loop down with it.
func (c *Core) invoke(ctx context.Context, q Question, logger zerolog.Logger, monitor func(any) error) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	return c.run(ctx, q, Emitter{Log: logger, Monitor: monitor})
}
