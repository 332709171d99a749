package workitem

import (
	"context"
	"testing"

	"github.com/cuemby/foreman/pkg/ferrors"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return New(s, nil, nil), s
}

func mustCreateItem(t *testing.T, e *Engine, goalID string) *types.WorkItem {
	t.Helper()
	item := &types.WorkItem{Title: "do thing", GoalID: goalID, CodebaseID: "cmb-1"}
	require.NoError(t, e.Create(item))
	return item
}

func TestCreateRejectsMissingFields(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.Create(&types.WorkItem{})
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.MissingFields))
}

func TestFullLifecycleHappyPath(t *testing.T) {
	e, _ := newTestEngine(t)
	item := mustCreateItem(t, e, "qst-1")

	require.NoError(t, e.Assign(item.ID, "bee-1"))
	require.NoError(t, e.Start(item.ID))
	require.NoError(t, e.Complete(item.ID))

	got, err := e.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ItemDone, got.Status)
}

func TestInvalidTransitionsRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	item := mustCreateItem(t, e, "qst-1")

	err := e.Start(item.ID) // pending -> running is not a legal direct hop
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.InvalidTransition))

	err = e.Complete(item.ID)
	require.Error(t, err)

	require.NoError(t, e.Assign(item.ID, "bee-1"))
	err = e.Assign(item.ID, "bee-2") // already assigned
	require.Error(t, err)
}

func TestFailThenResetReturnsToPending(t *testing.T) {
	e, _ := newTestEngine(t)
	item := mustCreateItem(t, e, "qst-1")
	require.NoError(t, e.Assign(item.ID, "bee-1"))
	require.NoError(t, e.Start(item.ID))
	require.NoError(t, e.Fail(item.ID))

	require.NoError(t, e.Reset(context.Background(), item.ID))

	got, err := e.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ItemPending, got.Status)
	assert.Empty(t, got.WorkerID)
}

func TestBlockedUnblocksToPending(t *testing.T) {
	e, _ := newTestEngine(t)
	item := mustCreateItem(t, e, "qst-1")
	require.NoError(t, e.Block(item.ID))
	require.NoError(t, e.Unblock(item.ID))

	got, err := e.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ItemPending, got.Status)
}

func TestAddDependencyRejectsSelfDependency(t *testing.T) {
	e, _ := newTestEngine(t)
	item := mustCreateItem(t, e, "qst-1")
	err := e.AddDependency(item.ID, item.ID)
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.SelfDependency))
}

func TestAddDependencyRejectsCycle(t *testing.T) {
	e, _ := newTestEngine(t)
	a := mustCreateItem(t, e, "qst-1")
	b := mustCreateItem(t, e, "qst-1")
	c := mustCreateItem(t, e, "qst-1")

	require.NoError(t, e.AddDependency(a.ID, b.ID)) // a depends on b
	require.NoError(t, e.AddDependency(b.ID, c.ID)) // b depends on c

	err := e.AddDependency(c.ID, a.ID) // would close a->b->c->a
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.CycleDetected))
}

func TestReadyAndUnblockDependents(t *testing.T) {
	e, _ := newTestEngine(t)
	a := mustCreateItem(t, e, "qst-1")
	b := mustCreateItem(t, e, "qst-1")
	require.NoError(t, e.AddDependency(a.ID, b.ID))
	require.NoError(t, e.Block(a.ID))

	ready, err := e.Ready(a.ID)
	require.NoError(t, err)
	assert.False(t, ready)

	require.NoError(t, e.Assign(b.ID, "bee-1"))
	require.NoError(t, e.Start(b.ID))
	require.NoError(t, e.Complete(b.ID))

	ready, err = e.Ready(a.ID)
	require.NoError(t, err)
	assert.True(t, ready)

	require.NoError(t, e.UnblockDependents(b.ID))
	got, err := e.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ItemPending, got.Status)
}

func TestReadyTreatsDanglingDependencyAsSatisfied(t *testing.T) {
	e, s := newTestEngine(t)
	a := mustCreateItem(t, e, "qst-1")
	dep := &types.Dependency{From: a.ID, To: "job-ghost1"}
	require.NoError(t, store.Insert[types.Dependency, *types.Dependency](s, store.Dependencies, "jdp", dep))

	ready, err := e.Ready(a.ID)
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestGoalStatusDerivation(t *testing.T) {
	mk := func(statuses ...types.WorkItemStatus) []*types.WorkItem {
		out := make([]*types.WorkItem, len(statuses))
		for i, s := range statuses {
			out[i] = &types.WorkItem{Status: s}
		}
		return out
	}

	assert.Equal(t, types.GoalPending, GoalStatus(nil))
	assert.Equal(t, types.GoalPending, GoalStatus(mk(types.ItemPending, types.ItemPending)))
	assert.Equal(t, types.GoalCompleted, GoalStatus(mk(types.ItemDone, types.ItemDone)))
	assert.Equal(t, types.GoalActive, GoalStatus(mk(types.ItemDone, types.ItemRunning)))
	assert.Equal(t, types.GoalFailed, GoalStatus(mk(types.ItemRunning, types.ItemFailed)))
	assert.Equal(t, types.GoalPending, GoalStatus(mk(types.ItemPending, types.ItemBlocked)))
}

func TestUpdateGoalStatusPersists(t *testing.T) {
	e, s := newTestEngine(t)
	goal := &types.Goal{Name: "g", Status: types.GoalPending}
	require.NoError(t, store.Insert[types.Goal, *types.Goal](s, store.Goals, "qst", goal))

	item := mustCreateItem(t, e, goal.ID)
	require.NoError(t, e.Assign(item.ID, "bee-1"))
	require.NoError(t, e.Start(item.ID))

	require.NoError(t, e.UpdateGoalStatus(goal.ID))

	got, err := store.Fetch[types.Goal, *types.Goal](s, store.Goals, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, types.GoalActive, got.Status)
}

type fakeStopper struct{ stopped []string }

func (f *fakeStopper) Stop(workerID string) error {
	f.stopped = append(f.stopped, workerID)
	return nil
}

type fakeSandboxRemover struct{ removed []string }

func (f *fakeSandboxRemover) RemoveForWorker(_ context.Context, workerID string, _ bool) error {
	f.removed = append(f.removed, workerID)
	return nil
}

func TestResetInvokesCollaborators(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	stopper := &fakeStopper{}
	sandboxRemover := &fakeSandboxRemover{}
	e := New(s, stopper, sandboxRemover)

	item := mustCreateItem(t, e, "qst-1")
	require.NoError(t, e.Assign(item.ID, "bee-1"))
	require.NoError(t, e.Start(item.ID))
	require.NoError(t, e.Fail(item.ID))

	require.NoError(t, e.Reset(context.Background(), item.ID))

	assert.Equal(t, []string{"bee-1"}, stopper.stopped)
	assert.Equal(t, []string{"bee-1"}, sandboxRemover.removed)
}
