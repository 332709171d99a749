// Package llmcli specifies how the orchestrator launches, feeds, and reaps
// the LLM CLI: the non-interactive argv it runs and the detached worker's
// wrapper script body. No concrete LLM vendor integration ships here — a
// Launcher only needs to know the command name configured for the
// workspace, matching the external-collaborator pattern pkg/vcs uses for
// git.
package llmcli
