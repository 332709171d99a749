package worker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/cuemby/foreman/pkg/bus"
	"github.com/cuemby/foreman/pkg/ferrors"
	"github.com/cuemby/foreman/pkg/ids"
	"github.com/cuemby/foreman/pkg/llmcli"
	"github.com/cuemby/foreman/pkg/log"
	"github.com/cuemby/foreman/pkg/profile"
	"github.com/cuemby/foreman/pkg/sandbox"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/cuemby/foreman/pkg/workitem"
	"github.com/rs/zerolog"
)

// Config parameterizes an Engine with workspace-local paths.
type Config struct {
	RunDir          string // <workspace>/.<app>/run, holds wrapper scripts and logs
	OrchestratorCLI string // path or PATH-resolvable name of this binary
}

// Engine spawns and reaps workers for both attached and detached modes.
type Engine struct {
	s        *store.Store
	items    *workitem.Engine
	sandbox  *sandbox.Manager
	bus      *bus.Bus
	launcher llmcli.Launcher
	profiles *profile.Generator
	spawner  Spawner
	cfg      Config
	logger   zerolog.Logger

	mu       sync.Mutex
	attached map[string]context.CancelFunc
}

// New returns an Engine. profiles may be nil to skip agent-profile
// generation entirely.
func New(s *store.Store, items *workitem.Engine, sb *sandbox.Manager, b *bus.Bus, launcher llmcli.Launcher, profiles *profile.Generator, spawner Spawner, cfg Config) *Engine {
	return &Engine{
		s: s, items: items, sandbox: sb, bus: b, launcher: launcher, profiles: profiles, spawner: spawner,
		cfg:      cfg,
		logger:   log.WithComponent("worker"),
		attached: make(map[string]context.CancelFunc),
	}
}

// Get fetches a worker by id.
func (e *Engine) Get(id string) (*types.Worker, error) {
	return store.Fetch[types.Worker, *types.Worker](e.s, store.Workers, id)
}

// List returns every worker record.
func (e *Engine) List() ([]*types.Worker, error) {
	return store.All[types.Worker, *types.Worker](e.s, store.Workers)
}

// bringUp performs the worker lifecycle steps shared by both spawn modes:
// readiness check, Worker insert, assign, sandbox creation, status
// transition to working, item start, and best-effort profile generation.
func (e *Engine) bringUp(ctx context.Context, itemID, name string) (*types.Worker, *types.Sandbox, error) {
	item, err := e.items.Get(itemID)
	if err != nil {
		return nil, nil, err
	}
	ready, err := e.items.Ready(itemID)
	if err != nil {
		return nil, nil, err
	}
	if !ready {
		return nil, nil, ferrors.New(ferrors.Blocked, itemID)
	}

	if name == "" {
		name = "worker-" + itemID
	}
	w := &types.Worker{Name: name, Status: types.WorkerStarting, WorkItemID: itemID}
	if err := store.Insert[types.Worker, *types.Worker](e.s, store.Workers, ids.PrefixWorker, w); err != nil {
		return nil, nil, err
	}

	if err := e.items.Assign(itemID, w.ID); err != nil {
		return nil, nil, err
	}

	sb, err := e.sandbox.Create(ctx, item.CodebaseID, w.ID, "")
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if _, err := store.UpdateMatching[types.Worker, *types.Worker](e.s, store.Workers,
		func(wk *types.Worker) bool { return wk.ID == w.ID },
		func(wk *types.Worker) {
			wk.Status = types.WorkerWorking
			wk.SandboxPath = sb.Path
			wk.StartedAt = &now
		},
	); err != nil {
		return nil, nil, err
	}

	if item.Status == types.ItemAssigned {
		if err := e.items.Start(itemID); err != nil {
			return nil, nil, err
		}
	}

	if e.profiles != nil {
		if err := e.profiles.Generate(ctx, sb.Path); err != nil {
			e.logger.Warn().Err(err).Str("worker_id", w.ID).Msg("agent profile generation failed, continuing")
		}
	}

	return w, sb, nil
}

// SpawnDetached runs the detached-worker steps of the worker lifecycle:
// readiness check, worker/sandbox bring-up, wrapper-script materialization,
// and a fully independent OS-process launch that survives the
// orchestrator CLI exiting.
func (e *Engine) SpawnDetached(ctx context.Context, itemID, name string) (*types.Worker, error) {
	w, sb, err := e.bringUp(ctx, itemID, name)
	if err != nil {
		return nil, err
	}

	logPath := filepath.Join(e.cfg.RunDir, w.ID+".log")
	scriptPath := filepath.Join(e.cfg.RunDir, w.ID+".sh")
	if err := os.MkdirAll(e.cfg.RunDir, 0o755); err != nil {
		return nil, err
	}
	script := e.launcher.WrapperScript(llmcli.WrapperOptions{
		SandboxDir:      sb.Path,
		LogPath:         logPath,
		WorkerID:        w.ID,
		OrchestratorCLI: e.cfg.OrchestratorCLI,
	})
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		return nil, err
	}

	pid, err := e.spawner.Spawn(scriptPath)
	if err != nil {
		return nil, err
	}
	if _, err := store.UpdateMatching[types.Worker, *types.Worker](e.s, store.Workers,
		func(wk *types.Worker) bool { return wk.ID == w.ID },
		func(wk *types.Worker) { wk.PID = pid },
	); err != nil {
		return nil, err
	}

	return e.Get(w.ID)
}

// SpawnAttached runs the LLM CLI as a child of the current process,
// streaming its output to the same per-worker log the cost tailer watches.
// The supervisor goroutine calls Complete or Fail itself on exit, rather
// than relying on a wrapper-script callback, and registers a cancel func so
// Stop can request graceful termination.
func (e *Engine) SpawnAttached(ctx context.Context, itemID, name string) (*types.Worker, error) {
	w, sb, err := e.bringUp(ctx, itemID, name)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.cfg.RunDir, 0o755); err != nil {
		return nil, err
	}
	logPath := filepath.Join(e.cfg.RunDir, w.ID+".log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, err
	}

	argv := e.launcher.Command(sb.Path)
	supCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(supCtx, argv[0], argv[1:]...)
	cmd.Dir = sb.Path
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		cancel()
		_ = logFile.Close()
		return nil, err
	}

	if _, err := store.UpdateMatching[types.Worker, *types.Worker](e.s, store.Workers,
		func(wk *types.Worker) bool { return wk.ID == w.ID },
		func(wk *types.Worker) { wk.PID = cmd.Process.Pid },
	); err != nil {
		cancel()
		return nil, err
	}

	e.mu.Lock()
	e.attached[w.ID] = cancel
	e.mu.Unlock()

	go e.superviseAttached(w.ID, cmd, logFile)

	return e.Get(w.ID)
}

func (e *Engine) superviseAttached(workerID string, cmd *exec.Cmd, logFile *os.File) {
	err := cmd.Wait()
	_ = logFile.Close()

	if err != nil {
		if cErr := e.Fail(context.Background(), workerID, err.Error()); cErr != nil {
			e.logger.Error().Err(cErr).Str("worker_id", workerID).Msg("failed to record attached worker failure")
		}
		return
	}
	if cErr := e.Complete(context.Background(), workerID); cErr != nil {
		e.logger.Error().Err(cErr).Str("worker_id", workerID).Msg("failed to record attached worker completion")
	}
}

// Stop requests graceful termination of workerID's attached supervisor.
// Detached workers have no entry here and Stop returns not_found, matching
// "detach is intentional".
func (e *Engine) Stop(workerID string) error {
	e.mu.Lock()
	cancel, ok := e.attached[workerID]
	if ok {
		delete(e.attached, workerID)
	}
	e.mu.Unlock()
	if !ok {
		return ferrors.NotFoundf("attached supervisor %s", workerID)
	}
	cancel()
	return nil
}

// Complete is the `worker complete` callback: it marks the worker and
// work item done, unblocks dependents, and notifies the overseer.
func (e *Engine) Complete(ctx context.Context, workerID string) error {
	w, err := e.Get(workerID)
	if err != nil {
		return err
	}
	if _, err := store.UpdateMatching[types.Worker, *types.Worker](e.s, store.Workers,
		func(wk *types.Worker) bool { return wk.ID == workerID },
		func(wk *types.Worker) { wk.Status = types.WorkerStopped; wk.StoppedAt = stoppedNow() },
	); err != nil {
		return err
	}
	if w.WorkItemID != "" {
		if err := e.items.Complete(w.WorkItemID); err != nil {
			return err
		}
		if err := e.items.UnblockDependents(w.WorkItemID); err != nil {
			return err
		}
	}
	e.clearAttached(workerID)
	return e.bus.Send(&types.Signal{From: workerID, To: bus.Topic(bus.KindOverseer, ""), Subject: "job_complete", Body: w.WorkItemID})
}

// Fail is the `worker fail` callback: it marks the worker crashed and the
// work item failed, then notifies the overseer for retry consideration.
func (e *Engine) Fail(ctx context.Context, workerID, reason string) error {
	w, err := e.Get(workerID)
	if err != nil {
		return err
	}
	if _, err := store.UpdateMatching[types.Worker, *types.Worker](e.s, store.Workers,
		func(wk *types.Worker) bool { return wk.ID == workerID },
		func(wk *types.Worker) { wk.Status = types.WorkerCrashed; wk.StoppedAt = stoppedNow() },
	); err != nil {
		return err
	}
	if w.WorkItemID != "" {
		if err := e.items.Fail(w.WorkItemID); err != nil {
			return err
		}
	}
	e.clearAttached(workerID)
	return e.bus.Send(&types.Signal{
		From: workerID, To: bus.Topic(bus.KindOverseer, ""), Subject: "job_failed",
		Body: fmt.Sprintf("item=%s reason=%s", w.WorkItemID, reason),
	})
}

func (e *Engine) clearAttached(workerID string) {
	e.mu.Lock()
	delete(e.attached, workerID)
	e.mu.Unlock()
}

func stoppedNow() *time.Time {
	t := time.Now()
	return &t
}
