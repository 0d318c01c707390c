// Package logging constructs the process-wide root logger used by every
// service instance, and the per-service child loggers derived from it.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Root is the process-wide logger. Service cores derive their own
// child logger from this with Str("service_id", id) so log lines from
// concurrently-running services stay distinguishable.
var Root zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	Root = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// ForService returns a logger tagged with the given service id and
// optional display name, for use by one Service Core instance.
func ForService(id, name string) zerolog.Logger {
	ctx := Root.With().Str("service_id", id)
	if name != "" {
		ctx = ctx.Str("service_name", name)
	}
	return ctx.Logger()
}

// ForChild returns a logger used by the asker side to re-emit log records
// forwarded from a child, prefixed so correlation with the child is
// preserved in the combined log stream.
func ForChild(parent zerolog.Logger, childName string) zerolog.Logger {
	return parent.With().Str("child", childName).Logger()
}
