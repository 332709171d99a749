package vcs

import "context"

// Tool is every version-control operation the sandbox manager requires.
// Paths are always absolute; branch arguments are bare names (no refs/heads
// prefix).
type Tool interface {
	// WorktreeAdd creates dir as a new worktree of the repo at repoPath,
	// checked out on a new branch named branch.
	WorktreeAdd(ctx context.Context, repoPath, dir, branch string) error

	// WorktreeRemove removes the worktree at dir. If force, uncommitted
	// changes are discarded.
	WorktreeRemove(ctx context.Context, repoPath, dir string, force bool) error

	// BranchDelete deletes branch from the repo at repoPath.
	BranchDelete(ctx context.Context, repoPath, branch string) error

	// CurrentBranch returns repoPath's checked-out branch name.
	CurrentBranch(ctx context.Context, repoPath string) (string, error)

	// DefaultBranch returns the repo's main line: "main" if it exists,
	// else "master", else the current HEAD branch.
	DefaultBranch(ctx context.Context, repoPath string) (string, error)

	// Checkout switches repoPath's working tree to branch.
	Checkout(ctx context.Context, repoPath, branch string) error

	// MergeNoFastForward merges branch into the currently checked-out
	// branch of repoPath with an explicit merge commit.
	MergeNoFastForward(ctx context.Context, repoPath, branch string) error

	// MergeBase returns the merge-base commit of a and b in repoPath.
	MergeBase(ctx context.Context, repoPath, a, b string) (string, error)

	// ChangedFiles returns the set of files that differ between from and
	// to (typically a merge-base and a branch tip) in repoPath.
	ChangedFiles(ctx context.Context, repoPath, from, to string) ([]string, error)
}

// CommandRunner executes an external command and returns its combined
// stdout+stderr output. It is the seam tests replace with a fake so unit
// tests never invoke a real git binary.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (output string, err error)
}
