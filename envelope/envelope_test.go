package envelope_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/octue/octue-sdk-go/envelope"
)

func TestEncodeDecodeQuestionRoundTrip(t *testing.T) {
	c := qt.New(t)
	manifest := "serialised-manifest"

	data, err := envelope.EncodeQuestion(map[string]int{"n": 3}, &manifest)
	c.Assert(err, qt.IsNil)

	q, err := envelope.DecodeQuestion(data)
	c.Assert(err, qt.IsNil)
	c.Assert(string(q.InputValues), qt.JSONEquals, map[string]int{"n": 3})
	c.Assert(*q.InputManifest, qt.Equals, manifest)
}

func TestEncodeDecodeResultRoundTrip(t *testing.T) {
	c := qt.New(t)

	data, err := envelope.EncodeResult(map[string]string{"status": "ok"}, nil)
	c.Assert(err, qt.IsNil)

	a, err := envelope.DecodeAnswer(data)
	c.Assert(err, qt.IsNil)
	c.Assert(a.IsError(), qt.IsFalse)
	c.Assert(string(a.OutputValues), qt.JSONEquals, map[string]string{"status": "ok"})
}

func TestEncodeDecodeErrorRoundTrip(t *testing.T) {
	c := qt.New(t)

	frames := []envelope.Frame{{File: "app.go", Line: 42, Function: "run", Text: "panic"}}
	data, err := envelope.EncodeError("ValueError", "bad input", frames)
	c.Assert(err, qt.IsNil)

	a, err := envelope.DecodeAnswer(data)
	c.Assert(err, qt.IsNil)
	c.Assert(a.IsError(), qt.IsTrue)
	c.Assert(a.ExceptionType, qt.Equals, "ValueError")
	c.Assert(a.ExceptionMessage, qt.Equals, "bad input")
	c.Assert(a.Traceback, qt.DeepEquals, frames)
}

func TestDecodeAnswerRejectsMixedResultAndError(t *testing.T) {
	c := qt.New(t)
	data := []byte(`{"output_values": 1, "exception_type": "ValueError", "exception_message": "bad"}`)
	_, err := envelope.DecodeAnswer(data)
	c.Assert(err, qt.ErrorMatches, ".*carries both a result and an exception.*")
}

func TestLogRecordRoundTrip(t *testing.T) {
	c := qt.New(t)
	record := envelope.LogRecord{Level: 20, Msg: "hello", Created: 1.5, Logger: "svc"}

	data, err := envelope.EncodeLogRecord(record)
	c.Assert(err, qt.IsNil)

	decoded, err := envelope.DecodeLogRecord(data)
	c.Assert(err, qt.IsNil)
	c.Assert(decoded, qt.DeepEquals, record)
}

func TestDecodeQuestionRejectsMalformedData(t *testing.T) {
	c := qt.New(t)
	_, err := envelope.DecodeQuestion([]byte("not json"))
	c.Assert(err, qt.ErrorMatches, ".*malformed question envelope.*")
}
