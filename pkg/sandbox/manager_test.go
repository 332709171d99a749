package sandbox

import (
	"context"
	"testing"

	"github.com/cuemby/foreman/pkg/bus"
	"github.com/cuemby/foreman/pkg/ferrors"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	failWorktreeAdd bool
	failMerge       bool
	defaultBranch   string
	changedSandbox  []string
	changedMain     []string
	worktreeAdds    []string
	worktreeRemoves []string
	branchDeletes   []string
}

func (f *fakeTool) WorktreeAdd(_ context.Context, _, dir, _ string) error {
	f.worktreeAdds = append(f.worktreeAdds, dir)
	if f.failWorktreeAdd {
		return ferrors.New(ferrors.ToolFailure, "branch exists")
	}
	return nil
}
func (f *fakeTool) WorktreeRemove(_ context.Context, _, dir string, _ bool) error {
	f.worktreeRemoves = append(f.worktreeRemoves, dir)
	return nil
}
func (f *fakeTool) BranchDelete(_ context.Context, _, branch string) error {
	f.branchDeletes = append(f.branchDeletes, branch)
	return nil
}
func (f *fakeTool) CurrentBranch(context.Context, string) (string, error) { return "main", nil }
func (f *fakeTool) DefaultBranch(context.Context, string) (string, error) {
	if f.defaultBranch != "" {
		return f.defaultBranch, nil
	}
	return "main", nil
}
func (f *fakeTool) Checkout(context.Context, string, string) error { return nil }
func (f *fakeTool) MergeNoFastForward(_ context.Context, _, _ string) error {
	if f.failMerge {
		return ferrors.New(ferrors.ToolFailure, "conflict")
	}
	return nil
}
func (f *fakeTool) MergeBase(context.Context, string, string, string) (string, error) {
	return "base123", nil
}
func (f *fakeTool) ChangedFiles(_ context.Context, _, from, to string) ([]string, error) {
	if to == "main" {
		return f.changedMain, nil
	}
	return f.changedSandbox, nil
}

func newTestManager(t *testing.T, tool *fakeTool) (*Manager, *store.Store) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	b := bus.New(s)
	return New(s, tool, b, nil), s
}

func mustCreateCodebase(t *testing.T, s *store.Store, path string, policy types.MergePolicy) *types.Codebase {
	t.Helper()
	cb := &types.Codebase{Name: "widgets", Path: path, MergePolicy: policy}
	require.NoError(t, store.Insert[types.Codebase, *types.Codebase](s, store.Codebases, "cmb", cb))
	return cb
}

func TestCreateInsertsActiveSandbox(t *testing.T) {
	tool := &fakeTool{}
	m, s := newTestManager(t, tool)
	cb := mustCreateCodebase(t, s, "/repo", types.MergePolicyManual)

	sb, err := m.Create(context.Background(), cb.ID, "bee-1", "")
	require.NoError(t, err)
	assert.Equal(t, types.SandboxActive, sb.Status)
	assert.Equal(t, "worker/bee-1", sb.Branch)
	assert.Len(t, tool.worktreeAdds, 1)
}

func TestCreateFailsOnNoPath(t *testing.T) {
	tool := &fakeTool{}
	m, s := newTestManager(t, tool)
	cb := mustCreateCodebase(t, s, "", types.MergePolicyManual)

	_, err := m.Create(context.Background(), cb.ID, "bee-1", "")
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.CodebaseHasNoPath))
}

func TestCreateRollsBackOnWorktreeFailure(t *testing.T) {
	tool := &fakeTool{failWorktreeAdd: true}
	m, s := newTestManager(t, tool)
	cb := mustCreateCodebase(t, s, "/repo", types.MergePolicyManual)

	_, err := m.Create(context.Background(), cb.ID, "bee-1", "")
	require.Error(t, err)

	all, err := store.All[types.Sandbox, *types.Sandbox](s, store.Sandboxes)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRemoveMarksRemoved(t *testing.T) {
	tool := &fakeTool{}
	m, s := newTestManager(t, tool)
	cb := mustCreateCodebase(t, s, "/repo", types.MergePolicyManual)
	sb, err := m.Create(context.Background(), cb.ID, "bee-1", "")
	require.NoError(t, err)

	require.NoError(t, m.Remove(context.Background(), sb.ID, true))

	got, err := store.Fetch[types.Sandbox, *types.Sandbox](s, store.Sandboxes, sb.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SandboxRemoved, got.Status)
	assert.NotNil(t, got.RemovedAt)
}

func TestMergeAutoSucceeds(t *testing.T) {
	tool := &fakeTool{}
	m, s := newTestManager(t, tool)
	cb := mustCreateCodebase(t, s, "/repo", types.MergePolicyAuto)
	sb, err := m.Create(context.Background(), cb.ID, "bee-1", "")
	require.NoError(t, err)

	require.NoError(t, m.MergeBack(context.Background(), sb.ID))
}

func TestMergeAutoConflictSurfacesMergeConflict(t *testing.T) {
	tool := &fakeTool{failMerge: true}
	m, s := newTestManager(t, tool)
	cb := mustCreateCodebase(t, s, "/repo", types.MergePolicyAuto)
	sb, err := m.Create(context.Background(), cb.ID, "bee-1", "")
	require.NoError(t, err)

	err = m.MergeBack(context.Background(), sb.ID)
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.MergeConflict))
}

func TestMergePRWithoutCodehostEmitsUnconfiguredSignal(t *testing.T) {
	tool := &fakeTool{}
	m, s := newTestManager(t, tool)
	cb := mustCreateCodebase(t, s, "/repo", types.MergePolicyPR)
	sb, err := m.Create(context.Background(), cb.ID, "bee-1", "")
	require.NoError(t, err)

	require.NoError(t, m.MergeBack(context.Background(), sb.ID))

	b := bus.New(s)
	signals, err := b.List(bus.ListOptions{To: "overseer"})
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "codehost_unconfigured", signals[0].Subject)
}

func TestConflictCheckReportsOverlap(t *testing.T) {
	tool := &fakeTool{changedSandbox: []string{"a.go", "b.go"}, changedMain: []string{"b.go", "c.go"}}
	m, s := newTestManager(t, tool)
	cb := mustCreateCodebase(t, s, "/repo", types.MergePolicyManual)
	sb, err := m.Create(context.Background(), cb.ID, "bee-1", "")
	require.NoError(t, err)

	report, err := m.ConflictCheck(context.Background(), sb.ID)
	require.NoError(t, err)
	assert.False(t, report.Clean)
	assert.Equal(t, []string{"b.go"}, report.Files)
}

func TestConflictCheckCleanWhenNoOverlap(t *testing.T) {
	tool := &fakeTool{changedSandbox: []string{"a.go"}, changedMain: []string{"c.go"}}
	m, s := newTestManager(t, tool)
	cb := mustCreateCodebase(t, s, "/repo", types.MergePolicyManual)
	sb, err := m.Create(context.Background(), cb.ID, "bee-1", "")
	require.NoError(t, err)

	report, err := m.ConflictCheck(context.Background(), sb.ID)
	require.NoError(t, err)
	assert.True(t, report.Clean)
}

func TestReconcileOrphansRemovesDeadWorkerSandboxes(t *testing.T) {
	tool := &fakeTool{}
	m, s := newTestManager(t, tool)
	cb := mustCreateCodebase(t, s, "/repo", types.MergePolicyManual)

	worker := &types.Worker{Name: "drone", Status: types.WorkerCrashed}
	require.NoError(t, store.Insert[types.Worker, *types.Worker](s, store.Workers, "bee", worker))

	sb, err := m.Create(context.Background(), cb.ID, worker.ID, "")
	require.NoError(t, err)

	fixed, err := m.ReconcileOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	got, err := store.Fetch[types.Sandbox, *types.Sandbox](s, store.Sandboxes, sb.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SandboxRemoved, got.Status)
}
