// Package envelope implements the wire codec for question, answer, and
// intermediate messages exchanged between a Service Core and its askers.
//
// Every message on the wire is a byte payload plus a small set of string
// attributes. The attribute set always carries "question_uuid"; terminal
// and intermediate messages additionally carry "kind".
package envelope

import (
	"encoding/json"
	"time"

	"github.com/octue/octue-sdk-go/pkg/errs"
)

// Kind distinguishes the messages that flow over a reply channel once a
// question has been published. Delivery acknowledgement is a distinct
// intermediate kind rather than a terminal type, per the runtime's
// resolution of the source's ambiguity on this point.
type Kind string

const (
	KindDeliveryAck Kind = "delivery_ack"
	KindLogRecord   Kind = "log_record"
	KindMonitor     Kind = "monitor"
	KindResult      Kind = "result"
	KindError       Kind = "error"
)

// Attribute keys used on every message published by this runtime.
const (
	AttrQuestionUUID = "question_uuid"
	AttrForwardLogs  = "forward_logs"
	AttrKind         = "kind"
)

// Serialiser lets an arbitrary input/output value hook into encoding
// instead of relying on struct tags, mirroring the "serialise() hook"
// requirement for custom types (e.g. manifests, datafiles).
type Serialiser interface {
	Serialise() (string, error)
}

// Question is the decoded form of a question payload. InputValues is kept
// as raw JSON so the runtime never needs to know the application's
// question schema; InputManifest is the manifest's own serialised string
// representation (opaque to this package).
type Question struct {
	InputValues   json.RawMessage `json:"input_values"`
	InputManifest *string         `json:"input_manifest"`
}

// EncodeQuestion marshals inputValues (or, if it implements Serialiser,
// the result of calling Serialise) and an already-serialised manifest
// string into a question payload.
func EncodeQuestion(inputValues any, inputManifest *string) ([]byte, error) {
	raw, err := marshalValue(inputValues)
	if err != nil {
		return nil, errs.B().Code(errs.InvalidArgument).Cause(err).Msg("failed to marshal input values").Err()
	}
	q := Question{InputValues: raw, InputManifest: inputManifest}
	data, err := json.Marshal(q)
	if err != nil {
		return nil, errs.B().Code(errs.InvalidArgument).Cause(err).Msg("failed to marshal question envelope").Err()
	}
	return data, nil
}

// DecodeQuestion parses a question payload previously produced by
// EncodeQuestion.
func DecodeQuestion(data []byte) (Question, error) {
	var q Question
	if err := json.Unmarshal(data, &q); err != nil {
		return Question{}, errs.B().Code(errs.InvalidArgument).Cause(err).Msg("malformed question envelope").Err()
	}
	return q, nil
}

// Answer is the decoded form of a terminal message: either a successful
// result (OutputValues/OutputManifest) or a remote exception
// (ExceptionType/ExceptionMessage/Traceback). The two are mutually
// exclusive, enforced at construction time by EncodeResult/EncodeError.
type Answer struct {
	OutputValues   json.RawMessage `json:"output_values,omitempty"`
	OutputManifest *string         `json:"output_manifest,omitempty"`

	ExceptionType    string  `json:"exception_type,omitempty"`
	ExceptionMessage string  `json:"exception_message,omitempty"`
	Traceback        []Frame `json:"traceback,omitempty"`
}

// IsError reports whether this Answer represents a remote exception
// rather than a successful result.
func (a Answer) IsError() bool {
	return a.ExceptionType != ""
}

// Frame is one stack frame of a remote exception's traceback, sufficient
// to reconstruct a printable stack on the receiving side.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
	Text     string `json:"text"`
}

// EncodeResult builds a successful terminal answer payload.
func EncodeResult(outputValues any, outputManifest *string) ([]byte, error) {
	raw, err := marshalValue(outputValues)
	if err != nil {
		return nil, errs.B().Code(errs.InvalidArgument).Cause(err).Msg("failed to marshal output values").Err()
	}
	a := Answer{OutputValues: raw, OutputManifest: outputManifest}
	return json.Marshal(a)
}

// EncodeError builds an error terminal answer payload from a reconstructed
// remote exception's identity.
func EncodeError(typeName, message string, traceback []Frame) ([]byte, error) {
	a := Answer{ExceptionType: typeName, ExceptionMessage: message, Traceback: traceback}
	return json.Marshal(a)
}

// DecodeAnswer parses a terminal message payload.
func DecodeAnswer(data []byte) (Answer, error) {
	var a Answer
	if err := json.Unmarshal(data, &a); err != nil {
		return Answer{}, errs.B().Code(errs.InvalidArgument).Cause(err).Msg("malformed answer envelope").Err()
	}
	if a.IsError() && len(a.OutputValues) > 0 {
		return Answer{}, errs.B().Code(errs.InvalidArgument).Msg("answer envelope carries both a result and an exception").Err()
	}
	return a, nil
}

// LogRecord is the payload of a log_record intermediate message.
type LogRecord struct {
	Level   int     `json:"level"`
	Msg     string  `json:"msg"`
	Created float64 `json:"created"`
	Logger  string  `json:"logger"`
	ExcInfo string  `json:"exc_info,omitempty"`
}

// EncodeLogRecord builds a log_record payload. Created is the record's
// own timestamp, not the publish time.
func EncodeLogRecord(r LogRecord) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeLogRecord parses a log_record payload.
func DecodeLogRecord(data []byte) (LogRecord, error) {
	var r LogRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return LogRecord{}, errs.B().Code(errs.InvalidArgument).Cause(err).Msg("malformed log record").Err()
	}
	return r, nil
}

// EncodeMonitor wraps an application-defined monitor datum. The schema is
// the application's concern; this package only round-trips the bytes.
func EncodeMonitor(datum any) ([]byte, error) {
	raw, err := marshalValue(datum)
	if err != nil {
		return nil, errs.B().Code(errs.InvalidArgument).Cause(err).Msg("failed to marshal monitor message").Err()
	}
	return raw, nil
}

// marshalValue marshals v, preferring its Serialise hook if it implements
// Serialiser, and otherwise falling back to encoding/json.
func marshalValue(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	if s, ok := v.(Serialiser); ok {
		str, err := s.Serialise()
		if err != nil {
			return nil, err
		}
		return json.Marshal(str)
	}
	return json.Marshal(v)
}

// FormatTime renders t the way any future timestamp field in an envelope
// should be encoded: ISO-8601 (RFC 3339).
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
