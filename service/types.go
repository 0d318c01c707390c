// Package service implements the Service Core: the identity, serve loop,
// ask loop, and answer logic shared by every participant in a question/
// answer exchange, whether it is acting as a server, an asker, or both at
// once in a recursive parent/child/grandchild tree.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/octue/octue-sdk-go/backend"
	"github.com/octue/octue-sdk-go/envelope"
	"github.com/octue/octue-sdk-go/exception"
	"github.com/octue/octue-sdk-go/transport"
)

// Question is the decoded question a run function is invoked with. It is
// kept schema-free on purpose: this runtime has no opinion on what an
// application's input values look like.
type Question struct {
	InputValues   json.RawMessage
	InputManifest *string
}

// Result is what a run function returns on success.
type Result struct {
	OutputValues   any
	OutputManifest Manifest
}

// Manifest is the contract an opaque manifest value must satisfy to flow
// through Ask and Answer. Serialise produces the wire string; datasets
// that are not yet uploaded to the cloud must be caught before a question
// ever reaches the wire, hence AllDatasetsAreInCloud.
type Manifest interface {
	envelope.Serialiser
	AllDatasetsAreInCloud() bool
}

// Emitter is what a run function uses to stream structured logs and
// monitor data back to whoever asked the question, for as long as the
// question is being answered.
type Emitter struct {
	Log     zerolog.Logger
	Monitor func(datum any) error
}

// RunFunc is the application logic a Service Core answers questions with.
type RunFunc func(ctx context.Context, question Question, emit Emitter) (Result, error)

// Core is one identity's view of the messaging runtime: it can serve
// questions, ask them of other services, and wait for the answers.
// Constructing a Core does not touch the network; Serve, Ask, and
// WaitForAnswer do.
type Core struct {
	id      string
	name    string
	backend backend.Backend
	manager transport.Manager
	run     RunFunc

	logger      zerolog.Logger
	exceptions  *exception.Registry
	validateMon func(any) error
}

// Option configures optional behaviour on New.
type Option func(*Core)

// WithName gives the Core a friendly display name, used in its log lines
// and as the logger name on the log records it forwards to askers; it is
// never used for addressing or topic naming.
func WithName(name string) Option {
	return func(c *Core) { c.name = name }
}

// WithExceptionRegistry installs the registry WaitForAnswer uses to
// reconstruct remote exceptions. Without one, every remote exception
// comes back as *exception.Generic.
func WithExceptionRegistry(r *exception.Registry) Option {
	return func(c *Core) { c.exceptions = r }
}

// WithMonitorValidator installs a validation function every locally
// emitted monitor datum is checked against before publishing.
func WithMonitorValidator(validate func(any) error) Option {
	return func(c *Core) { c.validateMon = validate }
}

// WithLogger overrides the Core's own logger (used for its own lifecycle
// messages, distinct from the per-question Emitter loggers Answer hands
// the run function).
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Core) { c.logger = logger }
}

// ID returns the service's identity, generated or supplied at
// construction.
func (c *Core) ID() string { return c.id }

// Name returns the service's friendly display name, if any.
func (c *Core) Name() string { return c.name }

// ServeOptions configures Serve.
type ServeOptions struct {
	// Timeout bounds how long Serve waits for questions before returning.
	// Zero means serve until ctx is canceled.
	Timeout time.Duration

	// AnswerTimeout bounds each individual Answer call's publish retries.
	// Defaults to 30 seconds, matching the deadline an asker is told to
	// expect by default.
	AnswerTimeout time.Duration

	// CleanupOnExit deletes the server's own topic and subscription when
	// Serve returns. Servers backing a long-lived deployment should leave
	// this false.
	CleanupOnExit bool
}

// AskOptions configures Ask.
type AskOptions struct {
	InputManifest Manifest

	// ForwardLogs requests that the child forward its logs for this
	// question back over the reply channel. Defaults to true.
	ForwardLogs *bool

	// QuestionUUID overrides the generated question identifier. Leave
	// empty to generate one.
	QuestionUUID string

	// PushEndpoint is carried as a question attribute only; this runtime
	// always uses a pull reply subscription and never applies it to
	// reply-channel creation; push subscriptions must never serve as
	// reply channels.
	PushEndpoint string

	// AllowLocalFiles disables the precondition that every dataset in
	// InputManifest already lives in the cloud.
	AllowLocalFiles bool

	// Timeout bounds how long the question's publish is retried for.
	Timeout time.Duration
}

// WaitOptions configures WaitForAnswer.
type WaitOptions struct {
	// Timeout bounds the whole wait, from the first pull to receiving (or
	// giving up on) a terminal message.
	Timeout time.Duration

	// DeliveryAckTimeout bounds how long WaitForAnswer waits for the
	// delivery_ack intermediate message before re-publishing the
	// question. Defaults to 5 seconds.
	DeliveryAckTimeout time.Duration

	// MaxRedeliveries bounds how many times the question is re-published
	// after a missing delivery_ack before WaitForAnswer gives up and
	// returns a timeout error. Defaults to 3.
	MaxRedeliveries int

	// OnLog, if set, is called for every log_record intermediate message
	// received, so the asker can re-emit the child's logs as its own,
	// prefixed with the child's identity.
	OnLog func(record envelope.LogRecord)

	// OnMonitor, if set, is called for every monitor intermediate message
	// received, with the still-encoded datum.
	OnMonitor func(datum json.RawMessage) error
}

// Answer is the decoded, successful result WaitForAnswer returns.
type Answer struct {
	OutputValues   json.RawMessage
	OutputManifest *string
}
