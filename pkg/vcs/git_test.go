package vcs

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cuemby/foreman/pkg/ferrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner substitutes the real git binary with scripted responses keyed
// by the joined argument list, mirroring how the teacher's scheduler tests
// swap pkg/runtime.ContainerdRuntime for a fake.
type fakeRunner struct {
	calls   []string
	outputs map[string]string
	errs    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeRunner) Run(_ context.Context, dir string, name string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, dir+"|"+name+" "+key)
	return f.outputs[key], f.errs[key]
}

func TestWorktreeAddInvokesGit(t *testing.T) {
	fr := newFakeRunner()
	tool := &GitTool{Runner: fr}
	require.NoError(t, tool.WorktreeAdd(context.Background(), "/repo", "/repo/workers/bee-1", "worker/bee-1"))
	require.Len(t, fr.calls, 1)
	assert.Contains(t, fr.calls[0], "worktree add -b worker/bee-1 /repo/workers/bee-1")
}

func TestWorktreeAddFailurePropagatesToolFailure(t *testing.T) {
	fr := newFakeRunner()
	fr.errs["worktree add -b worker/bee-1 /repo/workers/bee-1"] = fmt.Errorf("branch already exists")
	tool := &GitTool{Runner: fr}
	err := tool.WorktreeAdd(context.Background(), "/repo", "/repo/workers/bee-1", "worker/bee-1")
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.ToolFailure))
}

func TestDefaultBranchPrefersMain(t *testing.T) {
	fr := newFakeRunner()
	tool := &GitTool{Runner: fr}
	branch, err := tool.DefaultBranch(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestDefaultBranchFallsBackToMaster(t *testing.T) {
	fr := newFakeRunner()
	fr.errs["show-ref --verify --quiet refs/heads/main"] = fmt.Errorf("not found")
	tool := &GitTool{Runner: fr}
	branch, err := tool.DefaultBranch(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestDefaultBranchFallsBackToCurrentHead(t *testing.T) {
	fr := newFakeRunner()
	fr.errs["show-ref --verify --quiet refs/heads/main"] = fmt.Errorf("not found")
	fr.errs["show-ref --verify --quiet refs/heads/master"] = fmt.Errorf("not found")
	fr.outputs["rev-parse --abbrev-ref HEAD"] = "trunk\n"
	tool := &GitTool{Runner: fr}
	branch, err := tool.DefaultBranch(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, "trunk", branch)
}

func TestChangedFilesParsesLines(t *testing.T) {
	fr := newFakeRunner()
	fr.outputs["diff --name-only abc123 def456"] = "a.go\nb.go\n"
	tool := &GitTool{Runner: fr}
	files, err := tool.ChangedFiles(context.Background(), "/repo", "abc123", "def456")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b.go"}, files)
}

func TestChangedFilesEmptyDiffReturnsNil(t *testing.T) {
	fr := newFakeRunner()
	tool := &GitTool{Runner: fr}
	files, err := tool.ChangedFiles(context.Background(), "/repo", "abc123", "def456")
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMergeNoFastForwardWrapsConflictAsMergeConflict(t *testing.T) {
	fr := newFakeRunner()
	fr.errs["merge --no-ff --no-edit worker/bee-1"] = fmt.Errorf("CONFLICT (content): Merge conflict in a.go")
	tool := &GitTool{Runner: fr}
	err := tool.MergeNoFastForward(context.Background(), "/repo", "worker/bee-1")
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.MergeConflict))
}
