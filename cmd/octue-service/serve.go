package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/octue/octue-sdk-go/backend"
	"github.com/octue/octue-sdk-go/pkg/logging"
	"github.com/octue/octue-sdk-go/service"
)

var serveFlags struct {
	id          string
	backendKind string
	projectID   string
	nsqAddr     string
	credsEnvVar string
	timeout     time.Duration
	cleanup     bool
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.id, "id", "", "service id (generated if omitted)")
	serveCmd.Flags().StringVar(&serveFlags.backendKind, "backend", "memory", "transport backend: gcp, nsq, or memory")
	serveCmd.Flags().StringVar(&serveFlags.projectID, "project-id", "", "GCP project id (backend=gcp)")
	serveCmd.Flags().StringVar(&serveFlags.nsqAddr, "nsq-addr", "127.0.0.1:4150", "nsqd address (backend=nsq)")
	serveCmd.Flags().StringVar(&serveFlags.credsEnvVar, "credentials-env-var", "", "env var holding backend credentials")
	serveCmd.Flags().DurationVar(&serveFlags.timeout, "timeout", 0, "stop serving after this long (0 = forever)")
	serveCmd.Flags().BoolVar(&serveFlags.cleanup, "cleanup-on-exit", false, "delete the server topic/subscription on exit")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve questions with an echo run function, for connectivity testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		kind, err := parseBackendKind(serveFlags.backendKind)
		if err != nil {
			return err
		}

		back := backend.Backend{
			Kind:              kind,
			ProjectID:         serveFlags.projectID,
			NSQAddr:           serveFlags.nsqAddr,
			CredentialsEnvVar: serveFlags.credsEnvVar,
		}

		manager, err := backend.NewManager(ctx, back, backend.EnvCredentialsProvider{}, nil)
		if err != nil {
			return err
		}

		var id *string
		if serveFlags.id != "" {
			id = &serveFlags.id
		}

		core, err := service.New(back, manager, echoRunFunc, id)
		if err != nil {
			return err
		}

		logging.Root.Info().Str("service_id", core.ID()).Str("service_name", core.Name()).Msg("starting service")

		return core.Serve(ctx, service.ServeOptions{
			Timeout:       serveFlags.timeout,
			CleanupOnExit: serveFlags.cleanup,
		})
	},
}

// parseBackendKind translates the short names the --backend flag accepts
// into the Kind values package backend actually matches on.
func parseBackendKind(s string) (backend.Kind, error) {
	switch s {
	case "gcp":
		return backend.GCPPubSub, nil
	case "nsq":
		return backend.NSQ, nil
	case "memory":
		return backend.Memory, nil
	default:
		return "", fmt.Errorf("unrecognised --backend %q: must be gcp, nsq, or memory", s)
	}
}

// echoRunFunc answers every question by returning its input values
// unchanged, which is enough to exercise the full ask/serve/answer round
// trip without requiring an application to be wired in.
func echoRunFunc(_ context.Context, q service.Question, emit service.Emitter) (service.Result, error) {
	emit.Log.Info().Msg("echoing input values back to asker")

	var values any
	if len(q.InputValues) > 0 {
		if err := json.Unmarshal(q.InputValues, &values); err != nil {
			return service.Result{}, err
		}
	}

	return service.Result{OutputValues: values}, nil
}
