package workitem

import (
	"context"
	"sort"

	"github.com/cuemby/foreman/pkg/ferrors"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
)

// AttachedStopper requests graceful shutdown of an attached worker's
// supervisor, if one exists. Implemented by pkg/worker; best-effort.
type AttachedStopper interface {
	Stop(workerID string) error
}

// SandboxRemover tears down the active sandbox belonging to a worker.
// Implemented by pkg/sandbox; best-effort.
type SandboxRemover interface {
	RemoveForWorker(ctx context.Context, workerID string, force bool) error
}

// Engine implements the work-item lifecycle, dependency graph, and
// goal-status derivation described in the orchestration design.
type Engine struct {
	s       *store.Store
	stopper AttachedStopper
	sandbox SandboxRemover
}

// New returns an Engine backed by s. stopper and sandbox may be nil; Reset
// then simply skips the corresponding best-effort cleanup step.
func New(s *store.Store, stopper AttachedStopper, sandbox SandboxRemover) *Engine {
	return &Engine{s: s, stopper: stopper, sandbox: sandbox}
}

// Create inserts item after validating required fields.
func (e *Engine) Create(item *types.WorkItem) error {
	if item.Title == "" || item.GoalID == "" || item.CodebaseID == "" {
		return ferrors.MissingFieldsf("title,goal_id,codebase_id")
	}
	if item.Status == "" {
		item.Status = types.ItemPending
	}
	return store.Insert[types.WorkItem, *types.WorkItem](e.s, store.WorkItems, "job", item)
}

// Get fetches a work item by id.
func (e *Engine) Get(id string) (*types.WorkItem, error) {
	return store.Fetch[types.WorkItem, *types.WorkItem](e.s, store.WorkItems, id)
}

// List returns every work item, stable-ordered by ID.
func (e *Engine) List() ([]*types.WorkItem, error) {
	return store.All[types.WorkItem, *types.WorkItem](e.s, store.WorkItems)
}

// ListByGoal returns every work item belonging to goalID.
func (e *Engine) ListByGoal(goalID string) ([]*types.WorkItem, error) {
	return store.Filter[types.WorkItem, *types.WorkItem](e.s, store.WorkItems, func(w *types.WorkItem) bool {
		return w.GoalID == goalID
	})
}

// apply performs act on id, stamping the resulting status and running
// mutate against the same committed record. Callers must have already
// validated the transition with next(); apply assumes it is legal.
func (e *Engine) apply(id string, act action, mutate func(w *types.WorkItem)) error {
	_, err := store.UpdateMatching[types.WorkItem, *types.WorkItem](e.s, store.WorkItems,
		func(w *types.WorkItem) bool { return w.ID == id },
		func(w *types.WorkItem) {
			target, ok := next(w.Status, act)
			if !ok {
				return
			}
			w.Status = target
			if mutate != nil {
				mutate(w)
			}
		},
	)
	return err
}

// Assign transitions item to assigned and records workerID.
func (e *Engine) Assign(itemID, workerID string) error {
	return e.guardedApply(itemID, actionAssign, func(w *types.WorkItem) { w.WorkerID = workerID })
}

// Start transitions item from assigned to running.
func (e *Engine) Start(itemID string) error {
	return e.guardedApply(itemID, actionStart, nil)
}

// Complete transitions item from running to done.
func (e *Engine) Complete(itemID string) error {
	return e.guardedApply(itemID, actionComplete, nil)
}

// Fail transitions item from running to failed.
func (e *Engine) Fail(itemID string) error {
	return e.guardedApply(itemID, actionFail, nil)
}

// Block transitions item to blocked.
func (e *Engine) Block(itemID string) error {
	return e.guardedApply(itemID, actionBlock, nil)
}

// Unblock transitions item from blocked to pending.
func (e *Engine) Unblock(itemID string) error {
	return e.guardedApply(itemID, actionUnblock, nil)
}

func (e *Engine) guardedApply(itemID string, act action, mutate func(w *types.WorkItem)) error {
	before, err := e.Get(itemID)
	if err != nil {
		return err
	}
	if _, ok := next(before.Status, act); !ok {
		return ferrors.InvalidTransitionf("%s on item %s in status %s", act, itemID, before.Status)
	}
	return e.apply(itemID, act, mutate)
}

// Reset forces a failed item back to pending, best-effort stopping its
// worker and tearing down its sandbox first. The state-machine transition
// is the only step that must succeed; cleanup failures are swallowed.
func (e *Engine) Reset(ctx context.Context, itemID string) error {
	item, err := e.Get(itemID)
	if err != nil {
		return err
	}
	workerID := item.WorkerID

	if workerID != "" && e.stopper != nil {
		_ = e.stopper.Stop(workerID)
	}
	if workerID != "" && e.sandbox != nil {
		_ = e.sandbox.RemoveForWorker(ctx, workerID, true)
	}
	if workerID != "" {
		_, _ = store.UpdateMatching[types.Worker, *types.Worker](e.s, store.Workers,
			func(w *types.Worker) bool { return w.ID == workerID },
			func(w *types.Worker) { w.Status = types.WorkerStopped },
		)
	}

	if err := e.guardedApply(itemID, actionReset, func(w *types.WorkItem) { w.WorkerID = "" }); err != nil {
		return err
	}
	return nil
}

// AddDependency records that from cannot start until to is done. It
// rejects self-dependencies and edges that would close a cycle.
func (e *Engine) AddDependency(from, to string) error {
	if from == to {
		return ferrors.New(ferrors.SelfDependency, from)
	}
	reachable, err := e.reachable(to, from)
	if err != nil {
		return err
	}
	if reachable {
		return ferrors.New(ferrors.CycleDetected, from+"->"+to)
	}
	dep := &types.Dependency{From: from, To: to}
	return store.Insert[types.Dependency, *types.Dependency](e.s, store.Dependencies, "jdp", dep)
}

// reachable reports whether target is reachable from start by following
// depends_on (From -> To) edges breadth-first.
func (e *Engine) reachable(start, target string) (bool, error) {
	deps, err := store.All[types.Dependency, *types.Dependency](e.s, store.Dependencies)
	if err != nil {
		return false, err
	}
	edges := make(map[string][]string)
	for _, d := range deps {
		edges[d.From] = append(edges[d.From], d.To)
	}
	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == target {
			return true, nil
		}
		for _, nbr := range edges[cur] {
			if !visited[nbr] {
				visited[nbr] = true
				queue = append(queue, nbr)
			}
		}
	}
	return false, nil
}

// RemoveDependency deletes the from->to edge.
func (e *Engine) RemoveDependency(from, to string) error {
	deps, err := store.All[types.Dependency, *types.Dependency](e.s, store.Dependencies)
	if err != nil {
		return err
	}
	for _, d := range deps {
		if d.From == from && d.To == to {
			return store.Delete(e.s, store.Dependencies, d.ID)
		}
	}
	return ferrors.NotFoundf("dependency %s->%s", from, to)
}

// Dependencies returns the items id depends on.
func (e *Engine) Dependencies(id string) ([]*types.WorkItem, error) {
	deps, err := store.Filter[types.Dependency, *types.Dependency](e.s, store.Dependencies, func(d *types.Dependency) bool {
		return d.From == id
	})
	if err != nil {
		return nil, err
	}
	return e.itemsByID(deps, func(d *types.Dependency) string { return d.To })
}

// Dependents returns the items that depend on id.
func (e *Engine) Dependents(id string) ([]*types.WorkItem, error) {
	deps, err := store.Filter[types.Dependency, *types.Dependency](e.s, store.Dependencies, func(d *types.Dependency) bool {
		return d.To == id
	})
	if err != nil {
		return nil, err
	}
	return e.itemsByID(deps, func(d *types.Dependency) string { return d.From })
}

func (e *Engine) itemsByID(deps []*types.Dependency, pick func(*types.Dependency) string) ([]*types.WorkItem, error) {
	out := make([]*types.WorkItem, 0, len(deps))
	for _, d := range deps {
		item, ok, err := store.Get[types.WorkItem, *types.WorkItem](e.s, store.WorkItems, pick(d))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Ready reports whether every dependency of id is done. A dangling
// dependency (target record deleted) counts as satisfied.
func (e *Engine) Ready(id string) (bool, error) {
	deps, err := store.Filter[types.Dependency, *types.Dependency](e.s, store.Dependencies, func(d *types.Dependency) bool {
		return d.From == id
	})
	if err != nil {
		return false, err
	}
	for _, d := range deps {
		target, ok, err := store.Get[types.WorkItem, *types.WorkItem](e.s, store.WorkItems, d.To)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		if target.Status != types.ItemDone {
			return false, nil
		}
	}
	return true, nil
}

// UnblockDependents transitions every blocked dependent of id to pending
// if it has become ready.
func (e *Engine) UnblockDependents(id string) error {
	dependents, err := e.Dependents(id)
	if err != nil {
		return err
	}
	for _, d := range dependents {
		if d.Status != types.ItemBlocked {
			continue
		}
		ready, err := e.Ready(d.ID)
		if err != nil {
			return err
		}
		if ready {
			if err := e.Unblock(d.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadyItemsByPriority returns goalID's pending, ready items ordered by
// descending priority then ascending ID, for the overseer's spawn order.
func (e *Engine) ReadyItemsByPriority(goalID string) ([]*types.WorkItem, error) {
	items, err := e.ListByGoal(goalID)
	if err != nil {
		return nil, err
	}
	out := make([]*types.WorkItem, 0, len(items))
	for _, item := range items {
		if item.Status != types.ItemPending {
			continue
		}
		ready, err := e.Ready(item.ID)
		if err != nil {
			return nil, err
		}
		if ready {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GoalStatus derives a goal's status from the multiset of its items'
// statuses. It is a pure function: no store access.
func GoalStatus(items []*types.WorkItem) types.GoalStatus {
	if len(items) == 0 {
		return types.GoalPending
	}
	counts := make(map[types.WorkItemStatus]int)
	for _, item := range items {
		counts[item.Status]++
	}
	if counts[types.ItemFailed] > 0 {
		return types.GoalFailed
	}
	if counts[types.ItemRunning] > 0 || counts[types.ItemAssigned] > 0 {
		return types.GoalActive
	}
	if counts[types.ItemDone] == len(items) {
		return types.GoalCompleted
	}
	return types.GoalPending
}

// UpdateGoalStatus recomputes and persists goalID's status.
func (e *Engine) UpdateGoalStatus(goalID string) error {
	items, err := e.ListByGoal(goalID)
	if err != nil {
		return err
	}
	status := GoalStatus(items)
	n, err := store.UpdateMatching[types.Goal, *types.Goal](e.s, store.Goals,
		func(g *types.Goal) bool { return g.ID == goalID },
		func(g *types.Goal) { g.Status = status },
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ferrors.NotFoundf("goal %s", goalID)
	}
	return nil
}
