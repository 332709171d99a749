/*
Package sandbox implements the Sandbox Manager: creating and tearing down
per-worker isolated working directories realized as git worktrees, merging
completed work back into a codebase's main line by policy, and detecting
file-level merge conflicts ahead of time.

Create rolls back on worktree-add failure: no Sandbox record survives a
failed worktree creation. Remove is best-effort past the worktree-remove
step — branch deletion failures are swallowed, matching the teacher
reconciler's "log and continue" posture at the per-resource level.
*/
package sandbox
