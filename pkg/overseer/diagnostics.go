package overseer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/cuemby/foreman/pkg/config"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
)

// Severity is a diagnostic's outcome level.
type Severity string

const (
	SeverityOK    Severity = "ok"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Diagnostic is one check's result. Fixable checks may be repaired by
// RunAll when invoked with fix=true.
type Diagnostic struct {
	Name     string
	Status   Severity
	Message  string
	Fixable  bool
	fix      func(ctx context.Context, s *Supervisor) error
}

const diskWarnFreePercent = 10.0

// RunAll runs the full diagnostic battery against s's workspace. When
// fix is true, every fixable result at warn or error severity has its
// fix function applied and the diagnostic is re-run once.
func (s *Supervisor) RunAll(ctx context.Context, fix bool) []Diagnostic {
	checks := []func(context.Context) Diagnostic{
		s.checkVCSInstalled,
		s.checkLLMInstalled,
		s.checkWorkspaceInitialized,
		s.checkStoreOK,
		s.checkConfigValid,
		s.checkOrphanSandboxes,
		s.checkStaleWorkers,
		s.checkOverseerWorkspacePresent,
		s.checkDiskUsage,
	}

	results := make([]Diagnostic, 0, len(checks))
	for _, check := range checks {
		d := check(ctx)
		if fix && d.Fixable && d.Status != SeverityOK && d.fix != nil {
			if err := d.fix(ctx, s); err != nil {
				s.logger.Error().Err(err).Str("check", d.Name).Msg("fix failed")
			} else {
				d = check(ctx)
			}
		}
		results = append(results, d)
	}
	return results
}

func (s *Supervisor) checkVCSInstalled(context.Context) Diagnostic {
	if _, err := exec.LookPath("git"); err != nil {
		return Diagnostic{Name: "vcs_installed", Status: SeverityError, Message: "git not found on PATH"}
	}
	return Diagnostic{Name: "vcs_installed", Status: SeverityOK}
}

func (s *Supervisor) checkLLMInstalled(context.Context) Diagnostic {
	cmd := s.llmCommand
	if cmd == "" {
		cmd = "claude"
	}
	if _, err := exec.LookPath(cmd); err != nil {
		return Diagnostic{Name: "llm_installed", Status: SeverityError, Message: fmt.Sprintf("%s not found on PATH", cmd)}
	}
	return Diagnostic{Name: "llm_installed", Status: SeverityOK}
}

func (s *Supervisor) checkWorkspaceInitialized(context.Context) Diagnostic {
	if _, err := os.Stat(s.paths.ConfigFile()); err != nil {
		return Diagnostic{Name: "workspace_initialized", Status: SeverityError, Message: "config.toml missing"}
	}
	return Diagnostic{Name: "workspace_initialized", Status: SeverityOK}
}

func (s *Supervisor) checkStoreOK(context.Context) Diagnostic {
	if _, err := store.All[types.Codebase, *types.Codebase](s.store, store.Codebases); err != nil {
		return Diagnostic{Name: "store_ok", Status: SeverityError, Message: err.Error()}
	}
	return Diagnostic{Name: "store_ok", Status: SeverityOK}
}

func (s *Supervisor) checkConfigValid(context.Context) Diagnostic {
	if _, err := config.Load(s.paths.Root); err != nil {
		return Diagnostic{
			Name: "config_valid", Status: SeverityError, Message: err.Error(), Fixable: true,
			fix: func(ctx context.Context, s *Supervisor) error {
				_, err := config.Init(s.paths.Root, true)
				return err
			},
		}
	}
	return Diagnostic{Name: "config_valid", Status: SeverityOK}
}

func (s *Supervisor) checkOrphanSandboxes(ctx context.Context) Diagnostic {
	orphans, err := s.sandbox.ListOrphans(ctx)
	if err != nil {
		return Diagnostic{Name: "orphan_sandboxes", Status: SeverityError, Message: err.Error()}
	}
	if len(orphans) == 0 {
		return Diagnostic{Name: "orphan_sandboxes", Status: SeverityOK}
	}
	return Diagnostic{
		Name: "orphan_sandboxes", Status: SeverityWarn,
		Message: fmt.Sprintf("%d orphaned sandbox(es)", len(orphans)), Fixable: true,
		fix: func(ctx context.Context, s *Supervisor) error {
			_, err := s.sandbox.ReconcileOrphans(ctx)
			return err
		},
	}
}

// staleAfter is how long a worker may sit in starting/working with no
// wrapper log before the patrol considers it stale.
const staleAfter = 5 * time.Minute

func (s *Supervisor) checkStaleWorkers(context.Context) Diagnostic {
	workers, err := store.All[types.Worker, *types.Worker](s.store, store.Workers)
	if err != nil {
		return Diagnostic{Name: "stale_workers", Status: SeverityError, Message: err.Error()}
	}
	var stale []*types.Worker
	for _, w := range workers {
		if w.Status != types.WorkerStarting && w.Status != types.WorkerWorking {
			continue
		}
		if w.StartedAt == nil || time.Since(*w.StartedAt) < staleAfter {
			continue
		}
		logPath := s.paths.RunDir() + "/" + w.ID + ".log"
		if _, err := os.Stat(logPath); err == nil {
			continue
		}
		stale = append(stale, w)
	}
	if len(stale) == 0 {
		return Diagnostic{Name: "stale_workers", Status: SeverityOK}
	}
	return Diagnostic{
		Name: "stale_workers", Status: SeverityWarn,
		Message: fmt.Sprintf("%d stale worker(s)", len(stale)), Fixable: true,
		fix: func(ctx context.Context, s *Supervisor) error {
			for _, w := range stale {
				if _, err := store.UpdateMatching[types.Worker, *types.Worker](s.store, store.Workers,
					func(x *types.Worker) bool { return x.ID == w.ID },
					func(x *types.Worker) { x.Status = types.WorkerCrashed },
				); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (s *Supervisor) checkOverseerWorkspacePresent(context.Context) Diagnostic {
	if _, err := os.Stat(s.paths.Instructions()); err != nil {
		return Diagnostic{
			Name: "overseer_workspace_present", Status: SeverityWarn, Message: "INSTRUCTIONS.md missing", Fixable: true,
			fix: func(ctx context.Context, s *Supervisor) error {
				_, err := config.Init(s.paths.Root, true)
				return err
			},
		}
	}
	return Diagnostic{Name: "overseer_workspace_present", Status: SeverityOK}
}

func (s *Supervisor) checkDiskUsage(context.Context) Diagnostic {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(s.paths.Root, &stat); err != nil {
		return Diagnostic{Name: "disk_usage", Status: SeverityWarn, Message: err.Error()}
	}
	freePercent := float64(stat.Bfree) / float64(stat.Blocks) * 100
	if freePercent < diskWarnFreePercent {
		return Diagnostic{
			Name: "disk_usage", Status: SeverityWarn,
			Message: fmt.Sprintf("%.1f%% free disk space remaining", freePercent),
		}
	}
	return Diagnostic{Name: "disk_usage", Status: SeverityOK}
}
