package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/octue/octue-sdk-go/backend"
	"github.com/octue/octue-sdk-go/envelope"
	"github.com/octue/octue-sdk-go/exception"
	"github.com/octue/octue-sdk-go/service"
	"github.com/octue/octue-sdk-go/transport/memory"
)

func newMemoryBackend() (backend.Backend, *memory.Manager) {
	bus := memory.NewBus()
	manager := memory.NewManager(bus)
	return backend.Backend{Kind: backend.Memory}, manager
}

func waitForTopic(t *testing.T, manager *memory.Manager, name string) {
	t.Helper()
	for i := 0; i < 200; i++ {
		exists, err := manager.TopicExists(context.Background(), name)
		if err == nil && exists {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("topic %q never appeared", name)
}

func TestAskServeAnswerRoundTrip(t *testing.T) {
	c := qt.New(t)
	back, manager := newMemoryBackend()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run := func(_ context.Context, q service.Question, emit service.Emitter) (service.Result, error) {
		emit.Log.Info().Msg("working")
		c.Assert(emit.Monitor(map[string]int{"progress": 1}), qt.IsNil)
		return service.Result{OutputValues: map[string]string{"echo": string(q.InputValues)}}, nil
	}

	serverID := "echo-server"
	server, err := service.New(back, manager, run, &serverID)
	c.Assert(err, qt.IsNil)

	go func() {
		_ = server.Serve(ctx, service.ServeOptions{Timeout: 4 * time.Second})
	}()

	waitForTopic(t, manager, "octue.services."+serverID)

	askerID := "asker"
	asker, err := service.New(back, manager, nil, &askerID)
	c.Assert(err, qt.IsNil)

	var loggedLines []string
	var monitored bool

	reply, questionUUID, err := asker.Ask(ctx, serverID, map[string]int{"n": 42}, service.AskOptions{Timeout: 3 * time.Second})
	c.Assert(err, qt.IsNil)
	c.Assert(questionUUID, qt.Not(qt.Equals), "")

	answer, err := asker.WaitForAnswer(ctx, reply, service.WaitOptions{
		Timeout: 3 * time.Second,
		OnLog: func(record envelope.LogRecord) {
			loggedLines = append(loggedLines, record.Msg)
		},
		OnMonitor: func(datum json.RawMessage) error {
			monitored = true
			return nil
		},
	})
	c.Assert(err, qt.IsNil)
	c.Assert(string(answer.OutputValues), qt.Contains, "echo")
	c.Assert(loggedLines, qt.Contains, "working")
	c.Assert(monitored, qt.IsTrue)
}

func TestAskUnknownServiceFails(t *testing.T) {
	c := qt.New(t)
	back, manager := newMemoryBackend()
	ctx := context.Background()

	askerID := "asker"
	asker, err := service.New(back, manager, nil, &askerID)
	c.Assert(err, qt.IsNil)

	_, _, err = asker.Ask(ctx, "no-such-service", map[string]int{}, service.AskOptions{Timeout: time.Second})
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(service.IsServiceNotFound(err), qt.IsTrue)
}

func TestAnswerPropagatesRemoteException(t *testing.T) {
	c := qt.New(t)
	back, manager := newMemoryBackend()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run := func(_ context.Context, q service.Question, emit service.Emitter) (service.Result, error) {
		return service.Result{}, fmt.Errorf("could not process input values")
	}

	serverID := "failing-server"
	server, err := service.New(back, manager, run, &serverID,
		service.WithExceptionRegistry(exception.NewRegistry(nil)))
	c.Assert(err, qt.IsNil)

	go func() {
		_ = server.Serve(ctx, service.ServeOptions{Timeout: 4 * time.Second})
	}()
	waitForTopic(t, manager, "octue.services."+serverID)

	askerID := "asker"
	asker, err := service.New(back, manager, nil, &askerID)
	c.Assert(err, qt.IsNil)

	reply, _, err := asker.Ask(ctx, serverID, map[string]int{}, service.AskOptions{Timeout: 3 * time.Second})
	c.Assert(err, qt.IsNil)

	_, err = asker.WaitForAnswer(ctx, reply, service.WaitOptions{Timeout: 3 * time.Second})
	c.Assert(err, qt.Not(qt.IsNil))

	var generic *exception.Generic
	c.Assert(errors.As(err, &generic), qt.IsTrue)
	c.Assert(generic.Message, qt.Equals, "could not process input values")
}

func TestWaitForAnswerTimesOutWithNoServer(t *testing.T) {
	c := qt.New(t)
	back, manager := newMemoryBackend()
	ctx := context.Background()

	// Pre-create the child's inbox so Ask's existence check passes, but
	// never serve it, so no delivery_ack or answer ever arrives.
	_, err := manager.CreateTopic(ctx, "octue.services.silent-server", true)
	c.Assert(err, qt.IsNil)

	askerID := "asker"
	asker, err := service.New(back, manager, nil, &askerID)
	c.Assert(err, qt.IsNil)

	reply, _, err := asker.Ask(ctx, "silent-server", map[string]int{}, service.AskOptions{Timeout: time.Second})
	c.Assert(err, qt.IsNil)

	_, err = asker.WaitForAnswer(ctx, reply, service.WaitOptions{
		Timeout:            500 * time.Millisecond,
		DeliveryAckTimeout: 100 * time.Millisecond,
		MaxRedeliveries:    1,
	})
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(service.IsTimeout(err), qt.IsTrue)
}
