/*
Package worker implements the worker lifecycle: spawning the LLM CLI
either attached (an in-process supervised subprocess, stoppable) or
detached (a fully independent OS process reaped through a callback
wrapper script), and the `worker complete`/`worker fail` callback handlers
that form the durable completion channel back into the work-item engine
and the message bus.

Detached spawn follows the teacher's external-subprocess idiom (pkg/vcs,
pkg/embedded): a narrow Spawner interface wraps the OS-level process
launch so tests substitute a fake instead of actually forking a wrapper
script. Attached spawn keeps the subprocess under context control so Stop
can request graceful termination; detached workers are deliberately
unreachable through that path once launched.
*/
package worker
