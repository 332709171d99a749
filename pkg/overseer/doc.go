/*
Package overseer implements the long-running control loop described in
the orchestration design: a signal-driven supervisor that reacts to
worker completion/failure, retries failed work items under a budget and
retry-count cap, and runs a companion health patrol that sweeps for
orphaned sandboxes, stale workers, and configuration drift.

The control loop, the patrol, and the cost-pipeline tailer are started
as sibling goroutines under a golang.org/x/sync/errgroup.Group so a
panic recovered in one does not take the others down with it, mirroring
the teacher's reconciler's "log error but continue" policy at the cycle
level — here escalated to the goroutine level since three independent
loops share one process.
*/
package overseer
