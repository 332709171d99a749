package sandbox

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cuemby/foreman/pkg/bus"
	"github.com/cuemby/foreman/pkg/codehost"
	"github.com/cuemby/foreman/pkg/ferrors"
	"github.com/cuemby/foreman/pkg/log"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/cuemby/foreman/pkg/vcs"
	"github.com/rs/zerolog"
)

// Manager implements the Sandbox Manager: worktree-backed sandbox
// lifecycle and policy-driven merge-back.
type Manager struct {
	s      *store.Store
	vcs    vcs.Tool
	bus    *bus.Bus
	host   codehost.Client
	logger zerolog.Logger
}

// New returns a Manager. host may be nil — the pr merge policy then
// degrades to an unconfigured no-op signal.
func New(s *store.Store, tool vcs.Tool, b *bus.Bus, host codehost.Client) *Manager {
	return &Manager{s: s, vcs: tool, bus: b, host: host, logger: log.WithComponent("sandbox")}
}

// Create builds a worktree sandbox for worker against codebase. If branch
// is empty, it is derived as worker/<worker-id>.
func (m *Manager) Create(ctx context.Context, codebaseID, workerID, branch string) (*types.Sandbox, error) {
	cb, err := store.Fetch[types.Codebase, *types.Codebase](m.s, store.Codebases, codebaseID)
	if err != nil {
		return nil, err
	}
	if cb.Path == "" {
		return nil, ferrors.New(ferrors.CodebaseHasNoPath, cb.ID)
	}
	if branch == "" {
		branch = "worker/" + workerID
	}
	dir := filepath.Join(cb.Path, "workers", workerID)

	if err := m.vcs.WorktreeAdd(ctx, cb.Path, dir, branch); err != nil {
		return nil, err
	}

	sb := &types.Sandbox{
		CodebaseID: codebaseID,
		WorkerID:   workerID,
		Path:       dir,
		Branch:     branch,
		Status:     types.SandboxActive,
	}
	if err := store.Insert[types.Sandbox, *types.Sandbox](m.s, store.Sandboxes, "cel", sb); err != nil {
		// roll back: the worktree exists but the record doesn't; best-effort
		// undo so no orphan directory survives a failed insert.
		_ = m.vcs.WorktreeRemove(ctx, cb.Path, dir, true)
		return nil, err
	}
	return sb, nil
}

// Remove tears down sandboxID: worktree-remove, then best-effort
// branch-delete, then marks the record removed.
func (m *Manager) Remove(ctx context.Context, sandboxID string, force bool) error {
	sb, err := store.Fetch[types.Sandbox, *types.Sandbox](m.s, store.Sandboxes, sandboxID)
	if err != nil {
		return err
	}
	return m.remove(ctx, sb, force)
}

// RemoveForWorker removes workerID's active sandbox, if any. It satisfies
// pkg/workitem.SandboxRemover and is itself best-effort: a missing
// sandbox is not an error.
func (m *Manager) RemoveForWorker(ctx context.Context, workerID string, force bool) error {
	sb, ok, err := store.FindOne[types.Sandbox, *types.Sandbox](m.s, store.Sandboxes, func(s *types.Sandbox) bool {
		return s.WorkerID == workerID && s.Status == types.SandboxActive
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return m.remove(ctx, sb, force)
}

func (m *Manager) remove(ctx context.Context, sb *types.Sandbox, force bool) error {
	cb, err := store.Fetch[types.Codebase, *types.Codebase](m.s, store.Codebases, sb.CodebaseID)
	if err != nil {
		return err
	}
	if err := m.vcs.WorktreeRemove(ctx, cb.Path, sb.Path, force); err != nil {
		return err
	}
	if err := m.vcs.BranchDelete(ctx, cb.Path, sb.Branch); err != nil {
		m.logger.Warn().Err(err).Str("branch", sb.Branch).Msg("branch delete failed, continuing")
	}
	now := time.Now()
	_, err = store.UpdateMatching[types.Sandbox, *types.Sandbox](m.s, store.Sandboxes,
		func(s *types.Sandbox) bool { return s.ID == sb.ID },
		func(s *types.Sandbox) { s.Status = types.SandboxRemoved; s.RemovedAt = &now },
	)
	return err
}

// ConflictReport is the result of a pre-merge conflict check.
type ConflictReport struct {
	Clean bool
	Files []string
}

// ConflictCheck computes the intersection of files changed on sandboxID's
// branch and on the codebase's default branch since their merge-base. Any
// tool failure is treated as clean — a conservative default that never
// blocks on an uncertain signal.
func (m *Manager) ConflictCheck(ctx context.Context, sandboxID string) (ConflictReport, error) {
	sb, err := store.Fetch[types.Sandbox, *types.Sandbox](m.s, store.Sandboxes, sandboxID)
	if err != nil {
		return ConflictReport{}, err
	}
	cb, err := store.Fetch[types.Codebase, *types.Codebase](m.s, store.Codebases, sb.CodebaseID)
	if err != nil {
		return ConflictReport{}, err
	}

	mainBranch, err := m.vcs.DefaultBranch(ctx, cb.Path)
	if err != nil {
		return ConflictReport{Clean: true}, nil
	}
	base, err := m.vcs.MergeBase(ctx, cb.Path, mainBranch, sb.Branch)
	if err != nil {
		return ConflictReport{Clean: true}, nil
	}
	sandboxFiles, err := m.vcs.ChangedFiles(ctx, cb.Path, base, sb.Branch)
	if err != nil {
		return ConflictReport{Clean: true}, nil
	}
	mainFiles, err := m.vcs.ChangedFiles(ctx, cb.Path, base, mainBranch)
	if err != nil {
		return ConflictReport{Clean: true}, nil
	}

	mainSet := make(map[string]bool, len(mainFiles))
	for _, f := range mainFiles {
		mainSet[f] = true
	}
	var overlap []string
	for _, f := range sandboxFiles {
		if mainSet[f] {
			overlap = append(overlap, f)
		}
	}
	return ConflictReport{Clean: len(overlap) == 0, Files: overlap}, nil
}

// MergeBack folds sandboxID's branch into its codebase per the codebase's
// merge policy: manual logs and returns, auto merges --no-ff onto the
// default branch, pr opens a pull request (or emits a no-op signal when
// no code host is configured) and always notifies the overseer itself.
func (m *Manager) MergeBack(ctx context.Context, sandboxID string) error {
	sb, err := store.Fetch[types.Sandbox, *types.Sandbox](m.s, store.Sandboxes, sandboxID)
	if err != nil {
		return err
	}
	cb, err := store.Fetch[types.Codebase, *types.Codebase](m.s, store.Codebases, sb.CodebaseID)
	if err != nil {
		return err
	}

	switch cb.MergePolicy {
	case types.MergePolicyManual:
		m.logger.Info().Str("branch", sb.Branch).Msg("branch ready for human review")
		return nil
	case types.MergePolicyAuto:
		return m.mergeAuto(ctx, cb, sb)
	case types.MergePolicyPR:
		return m.mergePR(ctx, cb, sb)
	default:
		m.logger.Info().Str("branch", sb.Branch).Msg("branch ready for human review")
		return nil
	}
}

func (m *Manager) mergeAuto(ctx context.Context, cb *types.Codebase, sb *types.Sandbox) error {
	mainBranch, err := m.vcs.DefaultBranch(ctx, cb.Path)
	if err != nil {
		return err
	}
	if err := m.vcs.Checkout(ctx, cb.Path, mainBranch); err != nil {
		return err
	}
	if err := m.vcs.MergeNoFastForward(ctx, cb.Path, sb.Branch); err != nil {
		return ferrors.Wrap(ferrors.MergeConflict, err)
	}
	return nil
}

func (m *Manager) mergePR(ctx context.Context, cb *types.Codebase, sb *types.Sandbox) error {
	if m.host == nil || cb.CodeHostOwner == "" || cb.CodeHostRepo == "" {
		if m.bus != nil {
			_ = m.bus.Send(&types.Signal{
				From: "sandbox", To: bus.Topic(bus.KindOverseer, ""), Subject: "codehost_unconfigured",
				Body: "no code-host configured for codebase " + cb.Name,
			})
		}
		return nil
	}

	url, err := m.host.OpenPullRequest(ctx, cb.CodeHostOwner, cb.CodeHostRepo, sb.Branch,
		"Work from "+sb.Branch, "Automated merge-back from worker "+sb.WorkerID)
	if m.bus == nil {
		return err
	}
	if err != nil {
		// Decision: the failure signal carries the underlying detail so an
		// operator can act on it, rather than a bare "something failed".
		_ = m.bus.Send(&types.Signal{
			From: "sandbox", To: bus.Topic(bus.KindOverseer, ""), Subject: "pr_failed",
			Body: err.Error(),
		})
		return err
	}
	_ = m.bus.Send(&types.Signal{
		From: "sandbox", To: bus.Topic(bus.KindOverseer, ""), Subject: "pr_opened",
		Body: url,
	})
	return nil
}

// ListOrphans returns sandboxes whose worker record is missing or whose
// worker is terminal (stopped/crashed) while the sandbox is still active
// — candidates for the health patrol's orphan_sandboxes diagnostic.
func (m *Manager) ListOrphans(ctx context.Context) ([]*types.Sandbox, error) {
	active, err := store.Filter[types.Sandbox, *types.Sandbox](m.s, store.Sandboxes, func(s *types.Sandbox) bool {
		return s.Status == types.SandboxActive
	})
	if err != nil {
		return nil, err
	}
	var orphans []*types.Sandbox
	for _, sb := range active {
		worker, ok, err := store.Get[types.Worker, *types.Worker](m.s, store.Workers, sb.WorkerID)
		if err != nil {
			return nil, err
		}
		if !ok || worker.Status == types.WorkerStopped || worker.Status == types.WorkerCrashed {
			orphans = append(orphans, sb)
		}
	}
	return orphans, nil
}

// ReconcileOrphans removes every orphaned sandbox found by ListOrphans,
// force-discarding uncommitted changes. Per-sandbox failures are logged
// and do not stop the sweep.
func (m *Manager) ReconcileOrphans(ctx context.Context) (int, error) {
	orphans, err := m.ListOrphans(ctx)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, sb := range orphans {
		if err := m.remove(ctx, sb, true); err != nil {
			m.logger.Error().Err(err).Str("sandbox_id", sb.ID).Msg("failed to reconcile orphan sandbox")
			continue
		}
		fixed++
	}
	return fixed, nil
}
