// Package child implements the Child Handle: a lightweight, stateless
// reference to another service that builds a fresh Service Core for
// every question asked of it, rather than keeping one alive across calls.
package child

import (
	"context"
	"encoding/json"
	"time"

	"github.com/octue/octue-sdk-go/backend"
	"github.com/octue/octue-sdk-go/envelope"
	"github.com/octue/octue-sdk-go/exception"
	"github.com/octue/octue-sdk-go/service"
	"github.com/octue/octue-sdk-go/transport"
)

// Handle is a reference to a child service, identified by id. It holds no
// network resources of its own; Ask constructs a throwaway Core to send
// the question and wait for the answer, so that two concurrent calls to
// Ask on the same Handle never share state.
type Handle struct {
	ID      string
	Backend backend.Backend
	Manager transport.Manager

	// Exceptions is consulted to reconstruct a remote exception raised
	// while answering. Nil falls back to exception.Generic for everything.
	Exceptions *exception.Registry
}

// AskOptions configures one Ask call. It is a subset of service.AskOptions
// plus the wait-side options, since the asker never sees the intermediate
// Core or ReplyChannel that service.Ask and service.WaitForAnswer use.
type AskOptions struct {
	InputManifest   service.Manifest
	ForwardLogs     *bool
	AllowLocalFiles bool

	// Timeout bounds both publishing the question and waiting for the
	// answer. Defaults to 30 seconds.
	Timeout time.Duration

	// OnLog, if set, receives every log record the child forwards,
	// unmodified; its Logger field carries the child's display name.
	OnLog func(record envelope.LogRecord)

	// OnMonitor, if set, receives every monitor datum the child emits.
	OnMonitor func(datum []byte) error
}

// Ask sends inputValues to the child and blocks until its answer arrives,
// constructing a fresh, anonymous Service Core for the round trip. The
// core asking the question never serves; it exists only long enough to
// publish the question and read the reply channel.
func (h *Handle) Ask(ctx context.Context, inputValues any, opts AskOptions) (service.Answer, error) {
	core, err := service.New(h.Backend, h.Manager, nil, nil, service.WithExceptionRegistry(h.Exceptions))
	if err != nil {
		return service.Answer{}, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	reply, _, err := core.Ask(ctx, h.ID, inputValues, service.AskOptions{
		InputManifest:   opts.InputManifest,
		ForwardLogs:     opts.ForwardLogs,
		AllowLocalFiles: opts.AllowLocalFiles,
		Timeout:         timeout,
	})
	if err != nil {
		return service.Answer{}, err
	}

	var onMonitor func(json.RawMessage) error
	if opts.OnMonitor != nil {
		onMonitor = func(datum json.RawMessage) error { return opts.OnMonitor(datum) }
	}

	return core.WaitForAnswer(ctx, reply, service.WaitOptions{
		Timeout:   timeout,
		OnLog:     opts.OnLog,
		OnMonitor: onMonitor,
	})
}
