/*
Package workitem implements the work-item lifecycle state machine,
dependency graph, and goal-status derivation. Transitions are driven by a
fixed table; dependency integrity is enforced by breadth-first reachability
search before an edge is admitted. Goal status is a pure function of the
multiset of its items' statuses, recomputed on demand rather than cached.

Reset's best-effort worker/sandbox cleanup is expressed through two small
collaborator interfaces (AttachedStopper, SandboxRemover) rather than a
direct import of pkg/worker or pkg/sandbox, the same seam pkg/vcs.Tool and
pkg/llmcli.Launcher use elsewhere to keep the dependency graph acyclic.
*/
package workitem
