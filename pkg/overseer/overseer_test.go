package overseer

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/foreman/pkg/bus"
	"github.com/cuemby/foreman/pkg/config"
	"github.com/cuemby/foreman/pkg/cost"
	"github.com/cuemby/foreman/pkg/llmcli"
	"github.com/cuemby/foreman/pkg/sandbox"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/cuemby/foreman/pkg/worker"
	"github.com/cuemby/foreman/pkg/workitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVCS struct{}

func (fakeVCS) WorktreeAdd(context.Context, string, string, string) error  { return nil }
func (fakeVCS) WorktreeRemove(context.Context, string, string, bool) error { return nil }
func (fakeVCS) BranchDelete(context.Context, string, string) error         { return nil }
func (fakeVCS) CurrentBranch(context.Context, string) (string, error)      { return "main", nil }
func (fakeVCS) DefaultBranch(context.Context, string) (string, error)      { return "main", nil }
func (fakeVCS) Checkout(context.Context, string, string) error             { return nil }
func (fakeVCS) MergeNoFastForward(context.Context, string, string) error   { return nil }
func (fakeVCS) MergeBase(context.Context, string, string, string) (string, error) {
	return "base", nil
}
func (fakeVCS) ChangedFiles(context.Context, string, string, string) ([]string, error) {
	return nil, nil
}

type scriptedLauncher struct{ argv []string }

func (l scriptedLauncher) Command(string) []string { return l.argv }
func (l scriptedLauncher) WrapperScript(llmcli.WrapperOptions) string {
	return "#!/bin/sh\ntrue\n"
}

type harness struct {
	s     *store.Store
	bus   *bus.Bus
	items *workitem.Engine
	wrk   *worker.Engine
	sb    *sandbox.Manager
	costs *cost.Pipeline
	sup   *Supervisor
}

func newHarness(t *testing.T, argv []string) *harness {
	t.Helper()
	root := t.TempDir()
	_, err := config.Init(root, false)
	require.NoError(t, err)
	paths := config.NewPaths(root)

	s, err := store.Open(paths.StoreDir())
	require.NoError(t, err)
	b := bus.New(s)
	sbMgr := sandbox.New(s, fakeVCS{}, b, nil)
	items := workitem.New(s, nil, sbMgr)
	wrk := worker.New(s, items, sbMgr, b, scriptedLauncher{argv: argv}, nil, worker.OSSpawner{}, worker.Config{RunDir: paths.RunDir(), OrchestratorCLI: "foreman"})
	costs := cost.New(s, b, items, cost.DefaultPricingTable(), 10.0)
	sup := New(s, b, items, wrk, sbMgr, costs, nil, paths, Config{MaxRetries: 3, LLMCommand: "true"})

	return &harness{s: s, bus: b, items: items, wrk: wrk, sb: sbMgr, costs: costs, sup: sup}
}

func (h *harness) mustSetup(t *testing.T, budgetUSD *float64) (*types.Goal, *types.Codebase, *types.WorkItem) {
	t.Helper()
	cb := &types.Codebase{Name: "widgets", Path: t.TempDir(), MergePolicy: types.MergePolicyManual}
	require.NoError(t, store.Insert[types.Codebase, *types.Codebase](h.s, store.Codebases, "cmb", cb))
	goal := &types.Goal{Name: "ship it", Status: types.GoalPending, BudgetUSD: budgetUSD}
	require.NoError(t, store.Insert[types.Goal, *types.Goal](h.s, store.Goals, "qst", goal))
	item := &types.WorkItem{Title: "do thing", GoalID: goal.ID, CodebaseID: cb.ID}
	require.NoError(t, h.items.Create(item))
	return goal, cb, item
}

func TestRetrySpawnsNewWorkerAndIncrementsCount(t *testing.T) {
	h := newHarness(t, []string{"false"})
	_, _, item := h.mustSetup(t, nil)

	ctx := context.Background()
	w, err := h.wrk.SpawnAttached(ctx, item.ID, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, _ := h.wrk.Get(w.ID)
		return got != nil && got.Status == types.WorkerCrashed
	}, 2*time.Second, 10*time.Millisecond)

	h.sup.retry(ctx, w.ID)

	h.sup.mu.Lock()
	count := h.sup.retryCounts[item.ID]
	h.sup.mu.Unlock()
	assert.Equal(t, 1, count)

	got, err := h.items.Get(item.ID)
	require.NoError(t, err)
	assert.NotEqual(t, w.ID, got.WorkerID)
	assert.NotEmpty(t, got.WorkerID)
}

func TestRetryGivesUpAtMaxRetries(t *testing.T) {
	h := newHarness(t, []string{"false"})
	_, _, item := h.mustSetup(t, nil)
	h.sup.mu.Lock()
	h.sup.retryCounts[item.ID] = h.sup.maxRetries
	h.sup.mu.Unlock()

	ctx := context.Background()
	w, err := h.wrk.SpawnAttached(ctx, item.ID, "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		got, _ := h.wrk.Get(w.ID)
		return got != nil && got.Status == types.WorkerCrashed
	}, 2*time.Second, 10*time.Millisecond)

	h.sup.retry(ctx, w.ID)

	h.sup.mu.Lock()
	count := h.sup.retryCounts[item.ID]
	h.sup.mu.Unlock()
	assert.Equal(t, h.sup.maxRetries, count)

	got, err := h.items.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.WorkerID) // never reset, never respawned
}

func TestRetryGivesUpWhenBudgetExceeded(t *testing.T) {
	h := newHarness(t, []string{"false"})
	budget := 1.0
	goal, _, item := h.mustSetup(t, &budget)

	ctx := context.Background()
	w, err := h.wrk.SpawnAttached(ctx, item.ID, "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		got, _ := h.wrk.Get(w.ID)
		return got != nil && got.Status == types.WorkerCrashed
	}, 2*time.Second, 10*time.Millisecond)

	overBudget := 1.50
	_, err = h.costs.Record(w.ID, cost.Attrs{Model: "claude-sonnet", CostUSD: &overBudget})
	require.NoError(t, err)

	h.sup.retry(ctx, w.ID)

	h.sup.mu.Lock()
	count := h.sup.retryCounts[item.ID]
	h.sup.mu.Unlock()
	assert.Zero(t, count)

	got, err := h.items.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.WorkerID) // never reset

	signals, err := h.bus.List(bus.ListOptions{To: Topic})
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, subjectBudgetExceeded, signals[0].Subject)
	assert.Equal(t, goal.ID, signals[0].Body)
}

func TestCheckOrphanSandboxesDetectsAndFixes(t *testing.T) {
	h := newHarness(t, []string{"true"})
	_, cb, item := h.mustSetup(t, nil)
	ctx := context.Background()

	stoppedWorker := &types.Worker{Name: "w", Status: types.WorkerStopped, WorkItemID: item.ID}
	require.NoError(t, store.Insert[types.Worker, *types.Worker](h.s, store.Workers, "bee", stoppedWorker))
	sb, err := h.sb.Create(ctx, cb.ID, stoppedWorker.ID, "")
	require.NoError(t, err)

	d := h.sup.checkOrphanSandboxes(ctx)
	assert.Equal(t, SeverityWarn, d.Status)
	assert.True(t, d.Fixable)

	require.NoError(t, d.fix(ctx, h.sup))

	reloaded, err := store.Fetch[types.Sandbox, *types.Sandbox](h.s, store.Sandboxes, sb.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SandboxRemoved, reloaded.Status)
}

func TestCheckStaleWorkersFlagsOldStartingWorkerWithNoLog(t *testing.T) {
	h := newHarness(t, []string{"true"})
	old := time.Now().Add(-10 * time.Minute)
	w := &types.Worker{Name: "w", Status: types.WorkerStarting, StartedAt: &old}
	require.NoError(t, store.Insert[types.Worker, *types.Worker](h.s, store.Workers, "bee", w))

	d := h.sup.checkStaleWorkers(context.Background())
	assert.Equal(t, SeverityWarn, d.Status)
	assert.True(t, d.Fixable)

	require.NoError(t, d.fix(context.Background(), h.sup))
	reloaded, err := store.Fetch[types.Worker, *types.Worker](h.s, store.Workers, w.ID)
	require.NoError(t, err)
	assert.Equal(t, types.WorkerCrashed, reloaded.Status)
}

func TestCheckWorkspaceInitializedOK(t *testing.T) {
	h := newHarness(t, []string{"true"})
	d := h.sup.checkWorkspaceInitialized(context.Background())
	assert.Equal(t, SeverityOK, d.Status)
}

func TestRunPatrolOnlyEmitsHealthAlertAndStopsOnCancel(t *testing.T) {
	h := newHarness(t, []string{"true"})
	fastSup := New(h.s, h.bus, h.items, h.wrk, h.sb, h.costs, nil, h.sup.paths, Config{
		PatrolInterval: 10 * time.Millisecond,
		PatrolAutoFix:  false,
	})

	old := time.Now().Add(-10 * time.Minute)
	w := &types.Worker{Name: "w", Status: types.WorkerStarting, StartedAt: &old}
	require.NoError(t, store.Insert[types.Worker, *types.Worker](h.s, store.Workers, "bee", w))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- fastSup.RunPatrolOnly(ctx) }()

	require.Eventually(t, func() bool {
		signals, err := h.bus.List(bus.ListOptions{To: Topic})
		require.NoError(t, err)
		for _, sig := range signals {
			if sig.Subject == "health_alert" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, <-errCh)
}
