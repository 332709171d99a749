/*
Package log provides structured logging for Foreman using zerolog.

The package wraps zerolog to give every controller (overseer, patrol, cost
tailer, sandbox manager) a component-scoped logger with JSON or console
output and level filtering.

# Usage

Initializing the Logger:

	import "github.com/cuemby/foreman/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Component Loggers:

	overseerLog := log.WithComponent("overseer")
	overseerLog.Info().Str("goal_id", goalID).Msg("retry spawned")

	workerLog := log.WithWorkerID(workerID)
	workerLog.Error().Err(err).Msg("wrapper script exited nonzero")

# Log Levels

Debug is for frequent/low-value events (tailer ticks, lock polls). Info
marks lifecycle events (goal created, worker spawned, sandbox merged). Warn
marks recoverable anomalies a patrol would also catch (stale worker, orphan
sandbox). Error marks a swallowed failure that the caller continues past.
*/
package log
