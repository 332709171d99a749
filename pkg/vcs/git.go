package vcs

import (
	"context"
	"strings"

	"github.com/cuemby/foreman/pkg/ferrors"
)

// GitTool implements Tool by shelling to the git binary through a
// CommandRunner.
type GitTool struct {
	Runner CommandRunner
}

// NewGitTool returns a GitTool that shells to the real git binary.
func NewGitTool() *GitTool {
	return &GitTool{Runner: ExecRunner{}}
}

func (t *GitTool) run(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := t.Runner.Run(ctx, dir, "git", args...)
	if err != nil {
		return out, ferrors.Wrapf(ferrors.ToolFailure, err, "git %s: %s", strings.Join(args, " "), strings.TrimSpace(out))
	}
	return out, nil
}

func (t *GitTool) WorktreeAdd(ctx context.Context, repoPath, dir, branch string) error {
	_, err := t.run(ctx, repoPath, "worktree", "add", "-b", branch, dir)
	return err
}

func (t *GitTool) WorktreeRemove(ctx context.Context, repoPath, dir string, force bool) error {
	args := []string{"worktree", "remove", dir}
	if force {
		args = append(args, "--force")
	}
	_, err := t.run(ctx, repoPath, args...)
	return err
}

func (t *GitTool) BranchDelete(ctx context.Context, repoPath, branch string) error {
	_, err := t.run(ctx, repoPath, "branch", "-D", branch)
	return err
}

func (t *GitTool) CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	out, err := t.run(ctx, repoPath, "rev-parse", "--abbrev-ref", "HEAD")
	return strings.TrimSpace(out), err
}

func (t *GitTool) DefaultBranch(ctx context.Context, repoPath string) (string, error) {
	if t.branchExists(ctx, repoPath, "main") {
		return "main", nil
	}
	if t.branchExists(ctx, repoPath, "master") {
		return "master", nil
	}
	return t.CurrentBranch(ctx, repoPath)
}

func (t *GitTool) branchExists(ctx context.Context, repoPath, branch string) bool {
	_, err := t.run(ctx, repoPath, "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

func (t *GitTool) Checkout(ctx context.Context, repoPath, branch string) error {
	_, err := t.run(ctx, repoPath, "checkout", branch)
	return err
}

func (t *GitTool) MergeNoFastForward(ctx context.Context, repoPath, branch string) error {
	_, err := t.run(ctx, repoPath, "merge", "--no-ff", "--no-edit", branch)
	if err != nil {
		return ferrors.Wrap(ferrors.MergeConflict, err)
	}
	return nil
}

func (t *GitTool) MergeBase(ctx context.Context, repoPath, a, b string) (string, error) {
	out, err := t.run(ctx, repoPath, "merge-base", a, b)
	return strings.TrimSpace(out), err
}

func (t *GitTool) ChangedFiles(ctx context.Context, repoPath, from, to string) ([]string, error) {
	out, err := t.run(ctx, repoPath, "diff", "--name-only", from, to)
	if err != nil {
		return nil, err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}
