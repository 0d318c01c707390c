// Package logforward installs a per-question logging and monitoring sink
// around a single run-function invocation, publishing everything the
// function logs or reports as intermediate pub/sub messages on the
// question's reply channel, the way the Service Core's log and monitor
// forwarding is described to work.
package logforward

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/octue/octue-sdk-go/envelope"
	"github.com/octue/octue-sdk-go/pkg/errs"
)

// Publisher is the narrow capability this package needs from a reply
// channel: publish one intermediate or terminal message, tagged with its
// kind, and report whether the publish ultimately succeeded.
type Publisher interface {
	Publish(ctx context.Context, kind envelope.Kind, payload []byte, attrs map[string]string) error
}

// Sink is a zerolog writer that turns every log line written through it
// into a log_record intermediate message. Malformed lines are dropped
// rather than breaking the caller's logging.
type Sink struct {
	pub          Publisher
	questionUUID string
	loggerName   string
	forward      bool
}

// NewLogger returns a zerolog.Logger that forwards everything logged
// through it to pub as log_record messages tagged with questionUUID, via
// Sink. If forward is false the logger still exists (so application code
// need not branch on it) but every record it would have forwarded is
// dropped at the wire boundary, honouring forward_logs=false.
func NewLogger(pub Publisher, questionUUID, loggerName string, forward bool) zerolog.Logger {
	sink := &Sink{pub: pub, questionUUID: questionUUID, loggerName: loggerName, forward: forward}
	return zerolog.New(sink).With().Timestamp().Logger()
}

func (s *Sink) Write(p []byte) (int, error) {
	if !s.forward {
		return len(p), nil
	}

	var raw map[string]any
	if err := json.Unmarshal(p, &raw); err != nil {
		// A line this sink can't parse is a line it can't forward; never
		// surface that as a logging failure.
		return len(p), nil
	}

	record := envelope.LogRecord{
		Level:   levelToInt(raw["level"]),
		Msg:     stringField(raw["message"]),
		Created: float64(time.Now().UnixNano()) / 1e9,
		Logger:  s.loggerName,
	}
	if exc, ok := raw["error"]; ok {
		record.ExcInfo = fmt.Sprint(exc)
	}

	data, err := envelope.EncodeLogRecord(record)
	if err != nil {
		return len(p), nil
	}

	attrs := map[string]string{envelope.AttrQuestionUUID: s.questionUUID}
	_ = s.pub.Publish(context.Background(), envelope.KindLogRecord, data, attrs)
	return len(p), nil
}

// levelToInt maps zerolog's string level field onto the numeric levels
// Python's logging module uses, since that is what a question's original
// asker is likely to be expecting on the other end of the wire.
func levelToInt(level any) int {
	s, _ := level.(string)
	switch s {
	case "trace", "debug":
		return 10
	case "info":
		return 20
	case "warn":
		return 30
	case "error":
		return 40
	case "fatal", "panic":
		return 50
	default:
		return 20
	}
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

// MonitorFunc is the shape a run function is handed to emit monitor data
// mid-analysis. It returns an error if the datum fails validation or
// could not be published; emitting a validated datum that merely fails to
// reach the asker is not reported as fatal to the run function itself.
type MonitorFunc func(datum any) error

// NewMonitorEmitter returns a MonitorFunc that validates datum with
// validate (if non-nil), encodes it, and publishes it as a monitor
// message tagged with questionUUID.
func NewMonitorEmitter(pub Publisher, questionUUID string, validate func(any) error) MonitorFunc {
	return func(datum any) error {
		if validate != nil {
			if err := validate(datum); err != nil {
				return errs.B().Code(errs.InvalidArgument).Cause(err).Meta("boundary", "invalid_monitor_message").Msg("monitor message failed validation").Err()
			}
		}

		data, err := envelope.EncodeMonitor(datum)
		if err != nil {
			return err
		}

		attrs := map[string]string{envelope.AttrQuestionUUID: questionUUID}
		return pub.Publish(context.Background(), envelope.KindMonitor, data, attrs)
	}
}
