// Package profile generates the optional agent-profile file dropped into a
// worker's sandbox before launch. Generation is best-effort: a worker
// spawn never fails because the profile couldn't be produced. The
// generator shells a configured template command with a hard timeout,
// grounded on the teacher's health.ExecChecker context-bounded exec
// pattern, and falls back to a minimal built-in template on timeout or
// nonzero exit.
package profile
