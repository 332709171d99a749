package llmcli

import (
	"fmt"
	"strings"
)

const defaultCommand = "claude"

// WrapperOptions parameterizes a detached-worker wrapper script.
type WrapperOptions struct {
	SandboxDir      string
	LogPath         string
	WorkerID        string
	OrchestratorCLI string
}

// Launcher builds the non-interactive LLM CLI invocation and the wrapper
// script body materialized for a detached worker.
type Launcher interface {
	// Command returns the argv that runs the LLM CLI non-interactively
	// against dir, suitable for embedding in a shell pipeline.
	Command(dir string) []string
	// WrapperScript renders the full detached-worker wrapper script body.
	WrapperScript(opts WrapperOptions) string
}

// CLI is the concrete Launcher for a named non-interactive LLM command,
// read from `[app].llm_command` (default "claude").
type CLI struct {
	command string
}

// New returns a CLI launcher for the given command name. An empty name
// falls back to the default "claude".
func New(command string) *CLI {
	if command == "" {
		command = defaultCommand
	}
	return &CLI{command: command}
}

// Command returns the non-interactive, streaming-JSON invocation.
func (c *CLI) Command(dir string) []string {
	return []string{c.command, "-p", "--output-format", "stream-json", "--verbose"}
}

// WrapperScript renders a POSIX shell script that cds into the sandbox,
// runs the LLM CLI with output piped to a log file, and calls back into
// the orchestrator binary on exit per its status.
func (c *CLI) WrapperScript(opts WrapperOptions) string {
	cmd := strings.Join(c.Command(opts.SandboxDir), " ")

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "cd %s || exit 1\n", shQuote(opts.SandboxDir))
	fmt.Fprintf(&b, "%s > %s 2>&1\n", cmd, shQuote(opts.LogPath))
	b.WriteString("code=$?\n")
	fmt.Fprintf(&b, "if [ \"$code\" -eq 0 ]; then\n")
	fmt.Fprintf(&b, "  %s worker complete %s\n", shQuote(opts.OrchestratorCLI), shQuote(opts.WorkerID))
	fmt.Fprintf(&b, "else\n")
	fmt.Fprintf(&b, "  %s worker fail %s --reason \"exit $code\"\n", shQuote(opts.OrchestratorCLI), shQuote(opts.WorkerID))
	fmt.Fprintf(&b, "fi\n")
	return b.String()
}

// shQuote wraps s in single quotes, escaping any embedded single quote for
// safe interpolation into a POSIX shell script.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
