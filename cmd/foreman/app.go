package main

import (
	"github.com/cuemby/foreman/pkg/bus"
	"github.com/cuemby/foreman/pkg/config"
	"github.com/cuemby/foreman/pkg/cost"
	"github.com/cuemby/foreman/pkg/llmcli"
	"github.com/cuemby/foreman/pkg/overseer"
	"github.com/cuemby/foreman/pkg/profile"
	"github.com/cuemby/foreman/pkg/sandbox"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/vcs"
	"github.com/cuemby/foreman/pkg/worker"
	"github.com/cuemby/foreman/pkg/workitem"
)

// app wires every controller against one opened workspace. Built fresh per
// command invocation; nothing here is held across commands.
type app struct {
	paths config.Paths
	cfg   *config.FileStore
	store *store.Store
	bus   *bus.Bus
	items *workitem.Engine
	wrk   *worker.Engine
	sb    *sandbox.Manager
	costs *cost.Pipeline
	sup   *overseer.Supervisor
}

func openApp(root string) (*app, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	paths := config.NewPaths(root)
	s, err := store.Open(paths.StoreDir())
	if err != nil {
		return nil, err
	}

	b := bus.New(s)
	tool := vcs.NewGitTool()
	sb := sandbox.New(s, tool, b, nil)
	items := workitem.New(s, nil, sb)

	launcher := llmcli.New(cfg.Config().App.LLMCommand)
	profiles := profile.New(nil)
	wrk := worker.New(s, items, sb, b, launcher, profiles, worker.OSSpawner{}, worker.Config{
		RunDir:          paths.RunDir(),
		OrchestratorCLI: "foreman",
	})

	costs := cost.New(s, b, items, cost.DefaultPricingTable(), cfg.Config().Costs.BudgetUSD)
	tailer := cost.NewTailer(costs, cost.DefaultInterval)

	sup := overseer.New(s, b, items, wrk, sb, costs, tailer, paths, overseer.Config{
		PatrolInterval: 0,
		LLMCommand:     cfg.Config().App.LLMCommand,
	})

	return &app{paths: paths, cfg: cfg, store: s, bus: b, items: items, wrk: wrk, sb: sb, costs: costs, sup: sup}, nil
}
