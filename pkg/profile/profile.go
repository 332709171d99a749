package profile

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	defaultTimeout = 120 * time.Second
	fileName       = "AGENT_PROFILE.md"
)

const fallbackTemplate = `# Agent Profile

No project-specific profile was available. Proceed using the sandbox
contents and the assigned work item's description as your only context.
`

// Generator writes an agent-profile file into a sandbox directory.
type Generator struct {
	// Command, if non-empty, is run with the sandbox directory as its
	// working directory; its stdout becomes the profile content. An
	// empty Command always writes fallbackTemplate.
	Command []string
	Timeout time.Duration
}

// New returns a Generator that shells out to command to produce the
// profile body.
func New(command []string) *Generator {
	return &Generator{Command: command, Timeout: defaultTimeout}
}

// Generate writes AGENT_PROFILE.md into sandboxDir. A timeout or nonzero
// exit from the configured command falls back to a minimal built-in
// template rather than failing.
func (g *Generator) Generate(ctx context.Context, sandboxDir string) error {
	path := filepath.Join(sandboxDir, fileName)
	if len(g.Command) == 0 {
		return os.WriteFile(path, []byte(fallbackTemplate), 0o644)
	}

	timeout := g.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, g.Command[0], g.Command[1:]...)
	cmd.Dir = sandboxDir
	out, err := cmd.Output()
	if err != nil {
		return os.WriteFile(path, []byte(fallbackTemplate), 0o644)
	}
	return os.WriteFile(path, out, 0o644)
}
