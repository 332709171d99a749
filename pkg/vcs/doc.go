/*
Package vcs wraps the version-control worktree operations the sandbox
manager needs — worktree add/remove, branch delete, merge, diff, and
merge-base — behind a narrow interface, the way pkg/runtime wraps
containerd as an external collaborator in the teacher repo. The concrete
Tool implementation shells out to the git binary via CommandRunner, itself
an interface so tests substitute a fake without a real git process.
*/
package vcs
